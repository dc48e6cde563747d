package recipients

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/pagarme"
)

type stubRecipientsRepo struct {
	bySeller map[uuid.UUID]*models.Recipient
}

func newStubRecipientsRepo() *stubRecipientsRepo {
	return &stubRecipientsRepo{bySeller: make(map[uuid.UUID]*models.Recipient)}
}

func (s *stubRecipientsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRecipientsRepo) Create(ctx context.Context, recipient *models.Recipient) (*models.Recipient, error) {
	if recipient.ID == uuid.Nil {
		recipient.ID = uuid.New()
	}
	s.bySeller[recipient.SellerID] = recipient
	return recipient, nil
}

func (s *stubRecipientsRepo) FindBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Recipient, error) {
	recipient, ok := s.bySeller[sellerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return recipient, nil
}

func (s *stubRecipientsRepo) FindActiveBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Recipient, error) {
	recipient, err := s.FindBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if recipient.Status != enums.RecipientStatusActive {
		return nil, gorm.ErrRecordNotFound
	}
	return recipient, nil
}

func (s *stubRecipientsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RecipientStatus) error {
	for _, recipient := range s.bySeller {
		if recipient.ID == id {
			recipient.Status = status
		}
	}
	return nil
}

type stubRecipientGateway struct {
	status     string
	calls      int
	balance    *pagarme.Balance
	balanceErr error
}

func (s *stubRecipientGateway) GetRecipientBalance(ctx context.Context, recipientID string) (*pagarme.Balance, error) {
	if s.balanceErr != nil {
		return nil, s.balanceErr
	}
	if s.balance != nil {
		return s.balance, nil
	}
	return &pagarme.Balance{}, nil
}

func (s *stubRecipientGateway) CreateRecipient(ctx context.Context, params pagarme.RecipientCreateParams) (*pagarme.Recipient, error) {
	s.calls++
	status := s.status
	if status == "" {
		status = "active"
	}
	return &pagarme.Recipient{ID: "re_" + uuid.NewString(), Name: params.Name, Email: params.Email, Status: status}, nil
}

func validInput() RegisterInput {
	return RegisterInput{
		Name:          "Maria Silva",
		Email:         "maria@example.com",
		Document:      "12345678909",
		BankCode:      "341",
		BranchNumber:  "1234",
		AccountNumber: "567890",
		AccountDigit:  "1",
		AccountType:   "checking",
	}
}

func TestRegisterRecipient(t *testing.T) {
	repo := newStubRecipientsRepo()
	gateway := &stubRecipientGateway{}
	svc, err := NewService(repo, gateway, nil)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	sellerID := uuid.New()
	dto, err := svc.Register(context.Background(), sellerID, validInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if dto.Status != enums.RecipientStatusActive {
		t.Fatalf("unexpected status %s", dto.Status)
	}
	if dto.AccountLastDigits == nil || *dto.AccountLastDigits != "8901" {
		t.Fatalf("unexpected last digits %+v", dto.AccountLastDigits)
	}

	stored := repo.bySeller[sellerID]
	if stored == nil || stored.GatewayRecipientID == "" {
		t.Fatalf("gateway recipient id not stored")
	}
}

func TestRegisterRecipientAlreadyExists(t *testing.T) {
	repo := newStubRecipientsRepo()
	gateway := &stubRecipientGateway{}
	svc, _ := NewService(repo, gateway, nil)

	sellerID := uuid.New()
	repo.bySeller[sellerID] = &models.Recipient{
		ID: uuid.New(), SellerID: sellerID, GatewayRecipientID: "re_existing",
		Status: enums.RecipientStatusActive,
	}

	_, err := svc.Register(context.Background(), sellerID, validInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error %v", err)
	}
	if gateway.calls != 0 {
		t.Fatalf("gateway called for duplicate registration")
	}
}

func TestRegisterRecipientValidation(t *testing.T) {
	svc, _ := NewService(newStubRecipientsRepo(), &stubRecipientGateway{}, nil)

	input := validInput()
	input.Document = ""
	_, err := svc.Register(context.Background(), uuid.New(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRegisterRecipientPendingGatewayStatus(t *testing.T) {
	repo := newStubRecipientsRepo()
	svc, _ := NewService(repo, &stubRecipientGateway{status: "registration"}, nil)

	sellerID := uuid.New()
	dto, err := svc.Register(context.Background(), sellerID, validInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if dto.Status != enums.RecipientStatusPending {
		t.Fatalf("unexpected status %s", dto.Status)
	}
}

func TestGetForSellerIncludesGatewayBalance(t *testing.T) {
	repo := newStubRecipientsRepo()
	gateway := &stubRecipientGateway{
		balance: &pagarme.Balance{AvailableAmount: 12500, WaitingFunds: 3000},
	}
	svc, _ := NewService(repo, gateway, nil)

	sellerID := uuid.New()
	repo.bySeller[sellerID] = &models.Recipient{
		ID: uuid.New(), SellerID: sellerID, GatewayRecipientID: "re_active",
		Status: enums.RecipientStatusActive,
	}

	dto, err := svc.GetForSeller(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("GetForSeller: %v", err)
	}
	if dto.GatewayBalance == nil || dto.GatewayBalance.AvailableCents != 12500 {
		t.Fatalf("gateway balance missing: %+v", dto.GatewayBalance)
	}
}

func TestGetForSellerToleratesGatewayOutage(t *testing.T) {
	repo := newStubRecipientsRepo()
	gateway := &stubRecipientGateway{balanceErr: errors.New("gateway down")}
	svc, _ := NewService(repo, gateway, nil)

	sellerID := uuid.New()
	repo.bySeller[sellerID] = &models.Recipient{
		ID: uuid.New(), SellerID: sellerID, GatewayRecipientID: "re_active",
		Status: enums.RecipientStatusActive,
	}

	dto, err := svc.GetForSeller(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("GetForSeller must not fail on gateway outage: %v", err)
	}
	if dto.GatewayBalance != nil {
		t.Fatalf("balance must be omitted when the gateway is down")
	}
}
