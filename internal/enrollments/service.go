package enrollments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/internal/users"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/outbox"
	"github.com/vendalivre/vendalivre-backend/pkg/outbox/payloads"
	"github.com/vendalivre/vendalivre-backend/pkg/security"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service grants buyers access to purchased products and provisions shadow
// accounts for buyers who checked out without one.
type Service interface {
	// ResolveAndGrant runs inside the settlement transaction. It finds or
	// creates the buyer account and upserts the enrollment.
	ResolveAndGrant(ctx context.Context, tx *gorm.DB, name, email string, productID, orderID uuid.UUID) (uuid.UUID, error)
	// BackfillForUser claims paid orders placed with the user's email before
	// the account existed. Returns the number of orders linked.
	BackfillForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, email string) (int, error)
	// ManualGrant delivers a product outside of checkout. Only the product
	// owner can grant; the buyer account is provisioned if needed.
	ManualGrant(ctx context.Context, sellerID, productID uuid.UUID, buyerName, buyerEmail string) (uuid.UUID, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]MemberItem, error)
	HasAccess(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	// Content returns the gated product payload for an enrolled buyer.
	Content(ctx context.Context, userID, productID uuid.UUID) (*MemberContent, error)
}

type service struct {
	repo   Repository
	users  users.Repository
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the enrollments service.
func NewService(repo Repository, usersRepo users.Repository, outboxPub outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("enrollments repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if outboxPub == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, users: usersRepo, outbox: outboxPub, logg: logg}, nil
}

func (s *service) ResolveAndGrant(ctx context.Context, tx *gorm.DB, name, email string, productID, orderID uuid.UUID) (uuid.UUID, error) {
	usersRepo := s.users.WithTx(tx)

	user, created, err := s.findOrCreateBuyer(ctx, tx, usersRepo, name, email)
	if err != nil {
		return uuid.Nil, err
	}
	if created && s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "shadow buyer account provisioned")
	}

	if err := s.grant(ctx, tx, user.ID, productID, &orderID); err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

func (s *service) BackfillForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, email string) (int, error) {
	repo := s.repo.WithTx(tx)

	orders, err := repo.FindPaidOrdersByEmail(ctx, email)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paid orders for backfill")
	}

	linked := 0
	for i := range orders {
		order := &orders[i]
		if err := s.grant(ctx, tx, userID, order.ProductID, &order.ID); err != nil {
			return linked, err
		}
		if order.BuyerID == nil {
			if err := repo.LinkOrderBuyer(ctx, order.ID, userID); err != nil {
				return linked, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link order to buyer")
			}
			linked++
		}
	}
	return linked, nil
}

func (s *service) ManualGrant(ctx context.Context, sellerID, productID uuid.UUID, buyerName, buyerEmail string) (uuid.UUID, error) {
	email := users.NormalizeEmail(buyerEmail)
	if email == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer email required")
	}

	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.SellerID != sellerID {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}

	var buyerID uuid.UUID
	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		user, created, err := s.findOrCreateBuyer(ctx, tx, s.users.WithTx(tx), buyerName, email)
		if err != nil {
			return err
		}
		if created && s.logg != nil {
			s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "shadow buyer account provisioned")
		}
		buyerID = user.ID
		// No order backs a manual delivery.
		return s.grant(ctx, tx, user.ID, productID, nil)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return buyerID, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]MemberItem, error) {
	items, err := s.repo.ListMemberItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list member items")
	}
	return items, nil
}

func (s *service) HasAccess(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	enrollment, err := s.repo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollment")
	}
	return enrollment.Status == enums.EnrollmentStatusActive, nil
}

func (s *service) Content(ctx context.Context, userID, productID uuid.UUID) (*MemberContent, error) {
	ok, err := s.HasAccess(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no active enrollment for this product")
	}

	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &MemberContent{
		ProductID:   product.ID,
		ProductName: product.Name,
		ProductType: product.Type,
		ContentURL:  product.ContentURL,
	}, nil
}

// findOrCreateBuyer races with concurrent settlements for the same email.
// The insert is conflict-silent so the losing side can refetch the winner
// without poisoning the surrounding settlement transaction.
func (s *service) findOrCreateBuyer(ctx context.Context, tx *gorm.DB, usersRepo users.Repository, name, email string) (*models.User, bool, error) {
	user, err := usersRepo.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer by email")
	}

	candidate := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: security.ShadowPasswordSentinel,
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	created, inserted, err := usersRepo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shadow buyer")
	}
	if !inserted {
		existing, refetchErr := usersRepo.FindByEmail(ctx, email)
		if refetchErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, refetchErr, "refetch buyer after lost race")
		}
		return existing, false, nil
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventBuyerProvisioned,
		AggregateType: enums.AggregateUser,
		AggregateID:   created.ID,
		Version:       1,
		Data: payloads.BuyerProvisionedEvent{
			UserID: created.ID,
			Email:  created.Email,
		},
	}
	if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *service) grant(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, orderID *uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	enrollment := &models.Enrollment{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		Status:    enums.EnrollmentStatusActive,
	}
	if err := repo.Upsert(ctx, enrollment); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert enrollment")
	}

	// Reload the canonical row: on conflict the insert candidate's ID is not
	// the persisted one.
	persisted, err := repo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload enrollment")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventEnrollmentGranted,
		AggregateType: enums.AggregateEnrollment,
		AggregateID:   persisted.ID,
		Version:       1,
		Data: payloads.EnrollmentGrantedEvent{
			EnrollmentID: persisted.ID,
			UserID:       userID,
			ProductID:    productID,
			OrderID:      derefOrder(orderID),
		},
	}
	return s.outbox.EmitIfNotExists(ctx, tx, event)
}

func derefOrder(orderID *uuid.UUID) uuid.UUID {
	if orderID == nil {
		return uuid.Nil
	}
	return *orderID
}
