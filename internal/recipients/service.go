package recipients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/pagarme"
)

// Gateway is the slice of the payment gateway recipient onboarding uses.
type Gateway interface {
	CreateRecipient(ctx context.Context, params pagarme.RecipientCreateParams) (*pagarme.Recipient, error)
	GetRecipientBalance(ctx context.Context, recipientID string) (*pagarme.Balance, error)
}

// RegisterInput carries a seller's bank account for payout onboarding.
type RegisterInput struct {
	Name          string
	Email         string
	Document      string
	BankCode      string
	BranchNumber  string
	AccountNumber string
	AccountDigit  string
	AccountType   string
}

// RecipientDTO is the transport shape for recipient endpoints.
type RecipientDTO struct {
	ID                uuid.UUID             `json:"id"`
	Status            enums.RecipientStatus `json:"status"`
	BankCode          *string               `json:"bank_code,omitempty"`
	AccountLastDigits *string               `json:"account_last_digits,omitempty"`
	GatewayBalance    *GatewayBalance       `json:"gateway_balance,omitempty"`
}

// GatewayBalance mirrors the recipient's funds as the gateway reports them.
// The platform balance in internal/balance stays the source of truth for
// withdrawal limits.
type GatewayBalance struct {
	AvailableCents    int64 `json:"available_cents"`
	WaitingFundsCents int64 `json:"waiting_funds_cents"`
}

// Service onboards sellers as gateway payout recipients.
type Service interface {
	Register(ctx context.Context, sellerID uuid.UUID, input RegisterInput) (*RecipientDTO, error)
	GetForSeller(ctx context.Context, sellerID uuid.UUID) (*RecipientDTO, error)
}

type service struct {
	repo    Repository
	gateway Gateway
	logg    *logger.Logger
}

// NewService builds the recipients service.
func NewService(repo Repository, gateway Gateway, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("recipients repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{repo: repo, gateway: gateway, logg: logg}, nil
}

func (s *service) Register(ctx context.Context, sellerID uuid.UUID, input RegisterInput) (*RecipientDTO, error) {
	if err := validateRegister(input); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindBySeller(ctx, sellerID); err == nil {
		if existing.Status == enums.RecipientStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "seller already has a payout recipient")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "recipient onboarding already in progress")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient")
	}

	created, err := s.gateway.CreateRecipient(ctx, pagarme.RecipientCreateParams{
		Name:            input.Name,
		Email:           input.Email,
		Document:        input.Document,
		BankCode:        input.BankCode,
		BranchNumber:    input.BranchNumber,
		AccountNumber:   input.AccountNumber,
		AccountDigit:    input.AccountDigit,
		AccountType:     input.AccountType,
		TransferEnabled: true,
	})
	if err != nil {
		return nil, err
	}

	recipient := &models.Recipient{
		SellerID:           sellerID,
		GatewayRecipientID: created.ID,
		Status:             mapGatewayStatus(created.Status),
	}
	if input.BankCode != "" {
		bank := input.BankCode
		recipient.BankCode = &bank
	}
	if digits := lastDigits(input.AccountNumber + input.AccountDigit); digits != "" {
		recipient.AccountLastDigits = &digits
	}

	persisted, err := s.repo.Create(ctx, recipient)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create recipient")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithSellerID(ctx, sellerID.String()), "payout recipient registered")
	}
	return toDTO(persisted), nil
}

func (s *service) GetForSeller(ctx context.Context, sellerID uuid.UUID) (*RecipientDTO, error) {
	recipient, err := s.repo.FindBySeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient")
	}

	dto := toDTO(recipient)
	if recipient.Status == enums.RecipientStatusActive {
		// Best effort; the endpoint still answers when the gateway is down.
		if balance, err := s.gateway.GetRecipientBalance(ctx, recipient.GatewayRecipientID); err == nil {
			dto.GatewayBalance = &GatewayBalance{
				AvailableCents:    balance.AvailableAmount,
				WaitingFundsCents: balance.WaitingFunds,
			}
		} else if s.logg != nil {
			s.logg.Warn(s.logg.WithSellerID(ctx, sellerID.String()), "gateway balance unavailable")
		}
	}
	return dto, nil
}

func validateRegister(input RegisterInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient name required")
	case strings.TrimSpace(input.Document) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient document required")
	case strings.TrimSpace(input.AccountNumber) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "bank account number required")
	}
	return nil
}

// mapGatewayStatus folds the gateway's onboarding states onto ours. Most
// recipients come back active immediately in test mode.
func mapGatewayStatus(status string) enums.RecipientStatus {
	switch status {
	case "active":
		return enums.RecipientStatusActive
	case "refused":
		return enums.RecipientStatusRefused
	default:
		return enums.RecipientStatusPending
	}
}

func lastDigits(account string) string {
	digits := strings.TrimSpace(account)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func toDTO(recipient *models.Recipient) *RecipientDTO {
	return &RecipientDTO{
		ID:                recipient.ID,
		Status:            recipient.Status,
		BankCode:          recipient.BankCode,
		AccountLastDigits: recipient.AccountLastDigits,
	}
}
