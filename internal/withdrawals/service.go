package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/internal/balance"
	dbpkg "github.com/vendalivre/vendalivre-backend/pkg/db"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/money"
	"github.com/vendalivre/vendalivre-backend/pkg/outbox"
	"github.com/vendalivre/vendalivre-backend/pkg/outbox/payloads"
	"github.com/vendalivre/vendalivre-backend/pkg/pagarme"
	"github.com/vendalivre/vendalivre-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Gateway is the slice of the payment gateway payouts use.
type Gateway interface {
	CreateTransfer(ctx context.Context, recipientID string, amountCents int64) (*pagarme.Transfer, error)
}

// RecipientSource loads the seller's active payout recipient.
type RecipientSource interface {
	FindActiveBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Recipient, error)
}

// WithdrawalDTO is the transport shape for withdrawal endpoints.
type WithdrawalDTO struct {
	ID            uuid.UUID              `json:"id"`
	AmountCents   int64                  `json:"amount"`
	AmountDisplay string                 `json:"amount_display"`
	Status        enums.WithdrawalStatus `json:"status"`
	FailureReason *string                `json:"failure_reason,omitempty"`
	ProcessedAt   *time.Time             `json:"processed_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ListResult is a cursor page of withdrawals.
type ListResult struct {
	Withdrawals []WithdrawalDTO `json:"withdrawals"`
	NextCursor  string          `json:"next_cursor,omitempty"`
}

// Service handles seller payout requests.
type Service interface {
	Request(ctx context.Context, sellerID uuid.UUID, amountCents int64) (*WithdrawalDTO, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*ListResult, error)
}

// ServiceParams collects the withdrawals service dependencies.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Gateway    Gateway
	Recipients RecipientSource
	Balances   balance.Service
	Logger     *logger.Logger
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	gateway    Gateway
	recipients RecipientSource
	balances   balance.Service
	logg       *logger.Logger
}

// NewService builds the withdrawals service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("withdrawals repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if p.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if p.Recipients == nil {
		return nil, fmt.Errorf("recipient source required")
	}
	if p.Balances == nil {
		return nil, fmt.Errorf("balance service required")
	}
	return &service{
		repo:       p.Repo,
		tx:         p.Tx,
		outbox:     p.Outbox,
		gateway:    p.Gateway,
		recipients: p.Recipients,
		balances:   p.Balances,
		logg:       p.Logger,
	}, nil
}

func (s *service) Request(ctx context.Context, sellerID uuid.UUID, amountCents int64) (*WithdrawalDTO, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}

	recipient, err := s.recipients.FindActiveBySeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "seller not configured for payouts")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient")
	}

	// Reserve funds before the gateway call. The ledger only debits a
	// withdrawal once it completes, so the check subtracts in-flight
	// processing rows; the partial unique index on (seller_id) WHERE
	// status='processing' rejects a second request racing the same check.
	var withdrawal *models.Withdrawal
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		summary, err := s.balances.ComputeTx(ctx, tx, sellerID)
		if err != nil {
			return err
		}
		reserved, err := repo.SumProcessingBySeller(ctx, sellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum in-flight withdrawals")
		}
		if amountCents > summary.AvailableCents-reserved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient balance").
				WithDetails(map[string]any{"available": summary.AvailableCents - reserved})
		}

		candidate := &models.Withdrawal{
			SellerID:    sellerID,
			AmountCents: amountCents,
			Status:      enums.WithdrawalStatusProcessing,
		}
		created, err := repo.Create(ctx, candidate)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "another withdrawal is already being processed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
		}
		withdrawal = created

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRequested,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   created.ID,
			Version:       1,
			Data: payloads.WithdrawalRequestedEvent{
				WithdrawalID: created.ID,
				SellerID:     sellerID,
				AmountCents:  amountCents,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	transfer, gatewayErr := s.gateway.CreateTransfer(ctx, recipient.GatewayRecipientID, amountCents)
	if gatewayErr != nil {
		if settleErr := s.settleFailed(ctx, withdrawal, gatewayErr); settleErr != nil {
			return nil, settleErr
		}
		return nil, gatewayErr
	}

	if err := s.settleCompleted(ctx, withdrawal, transfer); err != nil {
		return nil, err
	}
	return s.dto(ctx, withdrawal.ID)
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*ListResult, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResult{Withdrawals: make([]WithdrawalDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Withdrawals = append(result.Withdrawals, toDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

// settleCompleted marks the withdrawal completed and debits the ledger in one
// transaction.
func (s *service) settleCompleted(ctx context.Context, withdrawal *models.Withdrawal, transfer *pagarme.Transfer) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		now := time.Now().UTC()
		updates := map[string]any{
			"status":              enums.WithdrawalStatusCompleted,
			"gateway_transfer_id": transfer.ID,
			"processed_at":        now,
		}
		if err := repo.Update(ctx, withdrawal.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete withdrawal")
		}

		description := fmt.Sprintf("Saque: %s", money.DisplayBRL(withdrawal.AmountCents))
		if err := repo.CreateTransaction(ctx, &models.Transaction{
			UserID:      withdrawal.SellerID,
			Type:        enums.TransactionTypeWithdrawal,
			Status:      enums.TransactionStatusCompleted,
			AmountCents: withdrawal.AmountCents,
			Description: &description,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal transaction")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalCompleted,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   withdrawal.ID,
			Version:       1,
			Data: payloads.WithdrawalSettledEvent{
				WithdrawalID: withdrawal.ID,
				SellerID:     withdrawal.SellerID,
				AmountCents:  withdrawal.AmountCents,
				Status:       enums.WithdrawalStatusCompleted,
			},
		})
	})
}

func (s *service) settleFailed(ctx context.Context, withdrawal *models.Withdrawal, cause error) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reason := cause.Error()
		updates := map[string]any{
			"status":         enums.WithdrawalStatusFailed,
			"failure_reason": reason,
		}
		if err := repo.Update(ctx, withdrawal.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail withdrawal")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalFailed,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   withdrawal.ID,
			Version:       1,
			Data: payloads.WithdrawalSettledEvent{
				WithdrawalID: withdrawal.ID,
				SellerID:     withdrawal.SellerID,
				AmountCents:  withdrawal.AmountCents,
				Status:       enums.WithdrawalStatusFailed,
				Reason:       reason,
			},
		})
	})
}

func (s *service) dto(ctx context.Context, id uuid.UUID) (*WithdrawalDTO, error) {
	withdrawal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload withdrawal")
	}
	dto := toDTO(withdrawal)
	return &dto, nil
}

func toDTO(w *models.Withdrawal) WithdrawalDTO {
	return WithdrawalDTO{
		ID:            w.ID,
		AmountCents:   w.AmountCents,
		AmountDisplay: money.Display(w.AmountCents),
		Status:        w.Status,
		FailureReason: w.FailureReason,
		ProcessedAt:   w.ProcessedAt,
		CreatedAt:     w.CreatedAt,
	}
}
