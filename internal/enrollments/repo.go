package enrollments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// Repository exposes enrollment persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Upsert inserts the enrollment or reactivates the existing
	// (user_id, product_id) row. Replays collapse to one grant.
	Upsert(ctx context.Context, enrollment *models.Enrollment) error
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Enrollment, error)
	// FindPaidOrdersByEmail supports the login backfill that claims orders
	// paid before the buyer registered.
	FindPaidOrdersByEmail(ctx context.Context, email string) ([]models.Order, error)
	LinkOrderBuyer(ctx context.Context, orderID, buyerID uuid.UUID) error
	ListMemberItems(ctx context.Context, userID uuid.UUID) ([]MemberItem, error)
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	// Transaction runs fn atomically when the caller has no ambient tx, as in
	// seller manual delivery.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an enrollments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Upsert(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status": enums.EnrollmentStatusActive,
			}),
		}).
		Create(enrollment).Error
}

func (r *repository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *repository) FindPaidOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("buyer_email = ? AND status = ?", email, enums.OrderStatusPaid).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) LinkOrderBuyer(ctx context.Context, orderID, buyerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND buyer_id IS NULL", orderID).
		UpdateColumn("buyer_id", buyerID).Error
}

func (r *repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *repository) ListMemberItems(ctx context.Context, userID uuid.UUID) ([]MemberItem, error) {
	var items []MemberItem
	err := r.db.WithContext(ctx).
		Table("enrollments").
		Select(`enrollments.id AS enrollment_id,
			enrollments.product_id,
			products.name AS product_name,
			products.type AS product_type,
			products.content_url,
			enrollments.status,
			enrollments.created_at AS enrolled_at`).
		Joins("JOIN products ON products.id = enrollments.product_id").
		Where("enrollments.user_id = ? AND enrollments.status = ?", userID, enums.EnrollmentStatusActive).
		Order("enrollments.created_at DESC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
