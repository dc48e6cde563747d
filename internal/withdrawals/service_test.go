package withdrawals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/internal/balance"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/outbox"
	"github.com/vendalivre/vendalivre-backend/pkg/pagarme"
	"github.com/vendalivre/vendalivre-backend/pkg/pagination"
)

type stubWithdrawalsRepo struct {
	withdrawals  map[uuid.UUID]*models.Withdrawal
	transactions []models.Transaction
}

func newStubWithdrawalsRepo() *stubWithdrawalsRepo {
	return &stubWithdrawalsRepo{withdrawals: make(map[uuid.UUID]*models.Withdrawal)}
}

func (s *stubWithdrawalsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubWithdrawalsRepo) Create(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	if withdrawal.Status == enums.WithdrawalStatusProcessing {
		for _, existing := range s.withdrawals {
			if existing.SellerID == withdrawal.SellerID && existing.Status == enums.WithdrawalStatusProcessing {
				return nil, errors.New("UNIQUE constraint failed: uq_withdrawals_seller_processing")
			}
		}
	}
	if withdrawal.ID == uuid.Nil {
		withdrawal.ID = uuid.New()
	}
	withdrawal.CreatedAt = time.Now()
	s.withdrawals[withdrawal.ID] = withdrawal
	return withdrawal, nil
}

func (s *stubWithdrawalsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, ok := s.withdrawals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return withdrawal, nil
}

func (s *stubWithdrawalsRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Withdrawal, error) {
	var rows []models.Withdrawal
	for _, withdrawal := range s.withdrawals {
		if withdrawal.SellerID == sellerID {
			rows = append(rows, *withdrawal)
		}
	}
	return rows, nil
}

func (s *stubWithdrawalsRepo) SumProcessingBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var total int64
	for _, withdrawal := range s.withdrawals {
		if withdrawal.SellerID == sellerID && withdrawal.Status == enums.WithdrawalStatusProcessing {
			total += withdrawal.AmountCents
		}
	}
	return total, nil
}

func (s *stubWithdrawalsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	withdrawal, ok := s.withdrawals[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.WithdrawalStatus); ok {
		withdrawal.Status = status
	}
	if transferID, ok := updates["gateway_transfer_id"].(string); ok {
		withdrawal.GatewayTransferID = &transferID
	}
	if reason, ok := updates["failure_reason"].(string); ok {
		withdrawal.FailureReason = &reason
	}
	if processedAt, ok := updates["processed_at"].(time.Time); ok {
		withdrawal.ProcessedAt = &processedAt
	}
	return nil
}

func (s *stubWithdrawalsRepo) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	s.transactions = append(s.transactions, *txn)
	return nil
}

type stubWithdrawalsTx struct{}

func (stubWithdrawalsTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubWithdrawalsOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubWithdrawalsOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubWithdrawalsOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return s.Emit(ctx, tx, event)
}

type stubTransferGateway struct {
	err        error
	calls      int
	transferFn func(ctx context.Context)
}

func (s *stubTransferGateway) CreateTransfer(ctx context.Context, recipientID string, amountCents int64) (*pagarme.Transfer, error) {
	s.calls++
	if s.transferFn != nil {
		fn := s.transferFn
		s.transferFn = nil
		fn(ctx)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &pagarme.Transfer{ID: "tr_test", Amount: amountCents, Status: "transferred"}, nil
}

type stubWithdrawalRecipients struct {
	recipient *models.Recipient
}

func (s *stubWithdrawalRecipients) FindActiveBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Recipient, error) {
	if s.recipient == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.recipient, nil
}

type stubBalances struct {
	available int64
}

func (s *stubBalances) Compute(ctx context.Context, sellerID uuid.UUID) (*balance.Summary, error) {
	return s.ComputeTx(ctx, nil, sellerID)
}

func (s *stubBalances) ComputeTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*balance.Summary, error) {
	return &balance.Summary{AvailableCents: s.available}, nil
}

type withdrawalsFixture struct {
	repo    *stubWithdrawalsRepo
	outbox  *stubWithdrawalsOutbox
	gateway *stubTransferGateway
	svc     Service
}

func newWithdrawalsFixture(t *testing.T, available int64) *withdrawalsFixture {
	t.Helper()

	f := &withdrawalsFixture{
		repo:    newStubWithdrawalsRepo(),
		outbox:  &stubWithdrawalsOutbox{},
		gateway: &stubTransferGateway{},
	}
	svc, err := NewService(ServiceParams{
		Repo:   f.repo,
		Tx:     stubWithdrawalsTx{},
		Outbox: f.outbox,
		Gateway: f.gateway,
		Recipients: &stubWithdrawalRecipients{recipient: &models.Recipient{
			ID: uuid.New(), SellerID: uuid.New(), GatewayRecipientID: "re_seller",
			Status: enums.RecipientStatusActive,
		}},
		Balances: &stubBalances{available: available},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *withdrawalsFixture) eventTypes() []enums.OutboxEventType {
	var types []enums.OutboxEventType
	for _, event := range f.outbox.events {
		types = append(types, event.EventType)
	}
	return types
}

func TestRequestWithdrawalCompleted(t *testing.T) {
	f := newWithdrawalsFixture(t, 10000)

	dto, err := f.svc.Request(context.Background(), uuid.New(), 5000)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if dto.Status != enums.WithdrawalStatusCompleted {
		t.Fatalf("unexpected status %s", dto.Status)
	}
	if len(f.repo.transactions) != 1 {
		t.Fatalf("expected 1 ledger debit, got %d", len(f.repo.transactions))
	}
	debit := f.repo.transactions[0]
	if debit.Type != enums.TransactionTypeWithdrawal || debit.AmountCents != 5000 {
		t.Fatalf("unexpected debit %+v", debit)
	}
	types := f.eventTypes()
	if len(types) != 2 || types[0] != enums.EventWithdrawalRequested || types[1] != enums.EventWithdrawalCompleted {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestRequestWithdrawalInsufficientBalance(t *testing.T) {
	f := newWithdrawalsFixture(t, 1000)

	_, err := f.svc.Request(context.Background(), uuid.New(), 5000)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error %v", err)
	}
	if f.gateway.calls != 0 {
		t.Fatalf("gateway called despite insufficient balance")
	}
	if len(f.repo.withdrawals) != 0 {
		t.Fatalf("withdrawal persisted despite insufficient balance")
	}
}

func TestRequestWithdrawalOverlappingRequestCannotOverdraw(t *testing.T) {
	f := newWithdrawalsFixture(t, 5000)
	sellerID := uuid.New()

	// A second request for the full balance lands while the first transfer
	// is still at the gateway. The in-flight row reserves the funds.
	var overlapErr error
	f.gateway.transferFn = func(ctx context.Context) {
		_, overlapErr = f.svc.Request(ctx, sellerID, 5000)
	}

	dto, err := f.svc.Request(context.Background(), sellerID, 5000)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if dto.Status != enums.WithdrawalStatusCompleted {
		t.Fatalf("unexpected status %s", dto.Status)
	}

	typed := pkgerrors.As(overlapErr)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("overlapping request not rejected: %v", overlapErr)
	}
	if f.gateway.calls != 1 {
		t.Fatalf("expected a single transfer, got %d", f.gateway.calls)
	}
	if len(f.repo.transactions) != 1 {
		t.Fatalf("expected a single ledger debit, got %d", len(f.repo.transactions))
	}
}

func TestRequestWithdrawalSingleInFlightPerSeller(t *testing.T) {
	f := newWithdrawalsFixture(t, 20000)
	sellerID := uuid.New()
	inFlight := &models.Withdrawal{
		ID:          uuid.New(),
		SellerID:    sellerID,
		AmountCents: 100,
		Status:      enums.WithdrawalStatusProcessing,
	}
	f.repo.withdrawals[inFlight.ID] = inFlight

	_, err := f.svc.Request(context.Background(), sellerID, 5000)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error %v", err)
	}
	if f.gateway.calls != 0 {
		t.Fatalf("gateway called with a payout already in flight")
	}
}

func TestRequestWithdrawalGatewayFailure(t *testing.T) {
	f := newWithdrawalsFixture(t, 10000)
	f.gateway.err = errors.New("transfer refused")

	_, err := f.svc.Request(context.Background(), uuid.New(), 5000)
	if err == nil {
		t.Fatalf("expected error")
	}

	var stored *models.Withdrawal
	for _, withdrawal := range f.repo.withdrawals {
		stored = withdrawal
	}
	if stored == nil || stored.Status != enums.WithdrawalStatusFailed {
		t.Fatalf("withdrawal not marked failed: %+v", stored)
	}
	if stored.FailureReason == nil || *stored.FailureReason != "transfer refused" {
		t.Fatalf("failure reason not recorded: %+v", stored.FailureReason)
	}
	if len(f.repo.transactions) != 0 {
		t.Fatalf("ledger debited on failed transfer")
	}
}

func TestRequestWithdrawalNoRecipient(t *testing.T) {
	f := newWithdrawalsFixture(t, 10000)
	svc, err := NewService(ServiceParams{
		Repo:       f.repo,
		Tx:         stubWithdrawalsTx{},
		Outbox:     f.outbox,
		Gateway:    f.gateway,
		Recipients: &stubWithdrawalRecipients{},
		Balances:   &stubBalances{available: 10000},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	_, err = svc.Request(context.Background(), uuid.New(), 5000)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRequestWithdrawalValidation(t *testing.T) {
	f := newWithdrawalsFixture(t, 10000)

	_, err := f.svc.Request(context.Background(), uuid.New(), 0)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}
