package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/pkg/config"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/metrics"
	"github.com/vendalivre/vendalivre-backend/pkg/money"
	"github.com/vendalivre/vendalivre-backend/pkg/outbox"
	"github.com/vendalivre/vendalivre-backend/pkg/outbox/payloads"
	"github.com/vendalivre/vendalivre-backend/pkg/pagarme"
)

// Transition sources recorded on metrics and logs.
const (
	SourceSync    = "sync"
	SourceWebhook = "webhook"
	SourcePoll    = "poll"
	SourceCron    = "cron"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Gateway is the slice of the payment gateway the settlement flow uses.
type Gateway interface {
	CreateOrder(ctx context.Context, params pagarme.OrderCreateParams) (*pagarme.Order, error)
	GetOrder(ctx context.Context, gatewayOrderID string) (*pagarme.Order, error)
	GetCharge(ctx context.Context, chargeID string) (*pagarme.Charge, error)
}

// ProductSource loads products for checkout and fan-out.
type ProductSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// RecipientSource loads the seller's active payout recipient.
type RecipientSource interface {
	FindActiveBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Recipient, error)
}

// FeeSource reads the platform fee configuration.
type FeeSource interface {
	FeePercent(ctx context.Context) (int, error)
}

// EnrollmentGranter provisions the buyer account and grants product access
// inside the settlement transaction.
type EnrollmentGranter interface {
	ResolveAndGrant(ctx context.Context, tx *gorm.DB, name, email string, productID, orderID uuid.UUID) (uuid.UUID, error)
}

// ApplyOptions qualifies an ApplyStatus call.
type ApplyOptions struct {
	Source        string
	FailureReason *string
}

// Service drives the order settlement state machine.
type Service interface {
	InitiateOrder(ctx context.Context, input InitiateOrderInput) (*InitiateOrderResult, error)
	InitiateCartOrder(ctx context.Context, input InitiateCartOrderInput) (*InitiateOrderResult, error)
	OrderStatus(ctx context.Context, orderID uuid.UUID) (*OrderStatusResult, error)
	ReconcileFromWebhook(ctx context.Context, eventType, chargeID string) error
	ReconcileByPolling(ctx context.Context, orderID uuid.UUID, source string) (enums.OrderStatus, error)
	ApplyStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, opts ApplyOptions) error
}

// ServiceParams collects the settlement service dependencies.
type ServiceParams struct {
	Repo        Repository
	Tx          txRunner
	Outbox      outboxPublisher
	Gateway     Gateway
	Products    ProductSource
	Recipients  RecipientSource
	Fees        FeeSource
	Enrollments EnrollmentGranter
	Platform    config.PlatformConfig
	Logger      *logger.Logger
	Metrics     *metrics.SettlementMetrics
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	gateway     Gateway
	products    ProductSource
	recipients  RecipientSource
	fees        FeeSource
	enrollments EnrollmentGranter
	platform    config.PlatformConfig
	logg        *logger.Logger
	metrics     *metrics.SettlementMetrics
}

// NewService builds the settlement service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("settlement repository required")
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
	if p.Products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if p.Recipients == nil {
		return nil, fmt.Errorf("recipient source required")
	}
	if p.Enrollments == nil {
		return nil, fmt.Errorf("enrollment granter required")
	}
	return &service{
		repo:        p.Repo,
		tx:          p.Tx,
		outbox:      p.Outbox,
		gateway:     p.Gateway,
		products:    p.Products,
		recipients:  p.Recipients,
		fees:        p.Fees,
		enrollments: p.Enrollments,
		platform:    p.Platform,
		logg:        p.Logger,
		metrics:     p.Metrics,
	}, nil
}

func (s *service) InitiateOrder(ctx context.Context, input InitiateOrderInput) (*InitiateOrderResult, error) {
	if err := validateBuyer(input.Buyer); err != nil {
		return nil, err
	}
	if err := validatePayment(input.PaymentMethod, input.Card); err != nil {
		return nil, err
	}

	product, err := s.products.FindActiveByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found or inactive")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	return s.initiate(ctx, initiateParams{
		productID:     product.ID,
		productName:   product.Name,
		productCode:   product.ID.String(),
		sellerID:      product.SellerID,
		amountCents:   product.PriceCents,
		buyer:         input.Buyer,
		paymentMethod: input.PaymentMethod,
		card:          input.Card,
	})
}

func (s *service) InitiateCartOrder(ctx context.Context, input InitiateCartOrderInput) (*InitiateOrderResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := validateBuyer(input.Buyer); err != nil {
		return nil, err
	}
	if err := validatePayment(input.PaymentMethod, input.Card); err != nil {
		return nil, err
	}

	// The cart is anchored on the first item's seller; the stored order
	// references the first product with the summed amount.
	var (
		anchor *models.Product
		total  int64
		names  []string
	)
	for i, item := range input.Items {
		product, err := s.products.FindActiveByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found or inactive")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if i == 0 {
			anchor = product
		} else if product.SellerID != anchor.SellerID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart items must belong to the same seller")
		}
		total += product.PriceCents
		names = append(names, product.Name)
	}

	return s.initiate(ctx, initiateParams{
		productID:     anchor.ID,
		productName:   strings.Join(names, ", "),
		productCode:   anchor.ID.String(),
		sellerID:      anchor.SellerID,
		amountCents:   total,
		buyer:         input.Buyer,
		paymentMethod: input.PaymentMethod,
		card:          input.Card,
	})
}

type initiateParams struct {
	productID     uuid.UUID
	productName   string
	productCode   string
	sellerID      uuid.UUID
	amountCents   int64
	buyer         BuyerInput
	paymentMethod enums.PaymentMethod
	card          *CardInput
}

func (s *service) initiate(ctx context.Context, p initiateParams) (*InitiateOrderResult, error) {
	if p.paymentMethod == enums.PaymentMethodCreditCard && s.platform.CreditCardDisabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "credit card payments are temporarily disabled")
	}

	recipient, err := s.recipients.FindActiveBySeller(ctx, p.sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "seller not configured for payouts")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipient")
	}

	feePercent := s.feePercent(ctx)
	platformRecipient := s.platform.PlatformRecipientID

	order := &models.Order{
		ProductID:     p.productID,
		SellerID:      p.sellerID,
		BuyerName:     p.buyer.Name,
		BuyerEmail:    normalizeEmail(p.buyer.Email),
		AmountCents:   p.amountCents,
		FeePercent:    feePercent,
		PaymentMethod: p.paymentMethod,
		Status:        enums.OrderStatusPending,
	}
	if doc := strings.TrimSpace(p.buyer.Document); doc != "" {
		order.BuyerDocument = &doc
	}
	if p.card != nil && p.card.Installments > 0 {
		installments := p.card.Installments
		order.Installments = &installments
	}

	// Persist before the gateway call: an ambiguous gateway failure leaves a
	// pending row for the poll sweep to resolve.
	if _, err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	ctx = s.withOrderLog(ctx, order.ID)

	gatewayOrder, err := s.gateway.CreateOrder(ctx, pagarme.OrderCreateParams{
		ProductCode: p.productCode,
		ProductName: p.productName,
		AmountCents: p.amountCents,
		Buyer: pagarme.CustomerParams{
			Name:     p.buyer.Name,
			Email:    order.BuyerEmail,
			Document: p.buyer.Document,
			Phone:    p.buyer.Phone,
		},
		PaymentMethod:       p.paymentMethod,
		Card:                cardParams(p.card),
		SellerRecipientID:   recipient.GatewayRecipientID,
		PlatformRecipientID: platformRecipient,
		FeePercent:          feePercent,
	})
	if err != nil {
		return s.handleInitiateGatewayError(ctx, order, err)
	}

	updates := map[string]any{
		"gateway_order_id": gatewayOrder.ID,
	}
	var charge *pagarme.Charge
	if len(gatewayOrder.Charges) > 0 {
		charge = &gatewayOrder.Charges[0]
		updates["charge_id"] = charge.ID
	}
	applyChargeDetails(order, charge, updates)
	if err := s.repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order with gateway refs")
	}

	// Credit card charges can settle synchronously. Run the same paid path
	// the webhook would.
	if charge != nil && charge.Status == pagarme.ChargeStatusPaid {
		if err := s.ApplyStatus(ctx, order.ID, enums.OrderStatusPaid, ApplyOptions{Source: SourceSync}); err != nil {
			return nil, err
		}
		order.Status = enums.OrderStatusPaid
	}
	if charge != nil && charge.Status == pagarme.ChargeStatusFailed {
		reason := failureReason(charge)
		if err := s.ApplyStatus(ctx, order.ID, enums.OrderStatusFailed, ApplyOptions{Source: SourceSync, FailureReason: reason}); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodePaymentFailed, "payment was not approved")
	}

	return buildInitiateResult(order), nil
}

// handleInitiateGatewayError decides what a gateway error means for the
// already persisted pending order. Ambiguous transport failures keep the
// order pending; definitive rejections fail it immediately.
func (s *service) handleInitiateGatewayError(ctx context.Context, order *models.Order, err error) (*InitiateOrderResult, error) {
	typed := pkgerrors.As(err)
	ambiguous := errors.Is(err, context.DeadlineExceeded) ||
		(typed != nil && typed.Code() == pkgerrors.CodeDependency)
	if ambiguous {
		if s.logg != nil {
			s.logg.Warn(ctx, "gateway unreachable during checkout, order left pending")
		}
		return buildInitiateResult(order), nil
	}

	reason := err.Error()
	if applyErr := s.ApplyStatus(ctx, order.ID, enums.OrderStatusFailed, ApplyOptions{Source: SourceSync, FailureReason: &reason}); applyErr != nil && s.logg != nil {
		s.logg.Error(ctx, "mark order failed after gateway rejection", applyErr)
	}
	return nil, err
}

func (s *service) OrderStatus(ctx context.Context, orderID uuid.UUID) (*OrderStatusResult, error) {
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	result := &OrderStatusResult{
		OrderID:       order.ID,
		ProductID:     order.ProductID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		AmountCents:   order.AmountCents,
		AmountDisplay: money.Display(order.AmountCents),
		BuyerID:       order.BuyerID,
		BuyerEmail:    order.BuyerEmail,
		CreatedAt:     order.CreatedAt,
	}
	if order.PaymentMethod == enums.PaymentMethodPix && order.PixQRCode != nil {
		result.Pix = &PixDetails{
			QRCode:    *order.PixQRCode,
			ExpiresAt: order.PixExpiresAt,
		}
		if order.PixQRCodeURL != nil {
			result.Pix.QRCodeURL = *order.PixQRCodeURL
		}
	}
	return result, nil
}

func (s *service) ReconcileFromWebhook(ctx context.Context, eventType, chargeID string) error {
	target, ok := mapWebhookEvent(eventType)
	if !ok {
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event_type", eventType), "unhandled webhook event")
		}
		return nil
	}
	if chargeID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "charge id required")
	}

	order, err := s.repo.FindOrderByChargeID(ctx, chargeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "charge_id", chargeID), "webhook for unknown charge")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by charge")
	}

	return s.ApplyStatus(s.withOrderLog(ctx, order.ID), order.ID, target, ApplyOptions{Source: SourceWebhook})
}

func (s *service) ReconcileByPolling(ctx context.Context, orderID uuid.UUID, source string) (enums.OrderStatus, error) {
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusPending {
		return order.Status, nil
	}
	ctx = s.withOrderLog(ctx, order.ID)

	var charge *pagarme.Charge
	switch {
	case order.ChargeID != nil && *order.ChargeID != "":
		charge, err = s.gateway.GetCharge(ctx, *order.ChargeID)
		if err != nil {
			return order.Status, err
		}
	case order.GatewayOrderID != nil && *order.GatewayOrderID != "":
		// An initiate timeout can lose the charge reference; the gateway
		// order still knows its charges.
		gatewayOrder, err := s.gateway.GetOrder(ctx, *order.GatewayOrderID)
		if err != nil {
			return order.Status, err
		}
		if len(gatewayOrder.Charges) == 0 {
			return order.Status, nil
		}
		charge = &gatewayOrder.Charges[len(gatewayOrder.Charges)-1]
		if err := s.repo.UpdateOrder(ctx, order.ID, map[string]any{"charge_id": charge.ID}); err != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "backfill charge id", err)
			}
		}
	default:
		// No gateway reference at all, nothing to poll.
		return order.Status, nil
	}

	target, ok := mapChargeStatus(charge.Status)
	if !ok {
		return order.Status, nil
	}
	opts := ApplyOptions{Source: source}
	if target == enums.OrderStatusFailed {
		opts.FailureReason = failureReason(charge)
	}
	if err := s.ApplyStatus(ctx, order.ID, target, opts); err != nil {
		return order.Status, err
	}
	return target, nil
}

// ApplyStatus is the idempotence boundary of settlement. The conditional
// update decides the winner; everything else only runs on the winning path,
// inside one transaction.
func (s *service) ApplyStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, opts ApplyOptions) error {
	switch target {
	case enums.OrderStatusPaid:
		return s.applyPaid(ctx, orderID, opts)
	case enums.OrderStatusFailed:
		return s.applyFailed(ctx, orderID, opts)
	case enums.OrderStatusRefunded, enums.OrderStatusChargeback:
		return s.applyReversal(ctx, orderID, target, opts)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported target status %s", target))
	}
}

func (s *service) applyPaid(ctx context.Context, orderID uuid.UUID, opts ApplyOptions) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		now := time.Now().UTC()
		moved, err := repo.TransitionStatus(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusPaid, map[string]any{
			"paid_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition order to paid")
		}
		if !moved {
			s.noop(ctx, orderID, enums.OrderStatusPaid, opts.Source)
			return nil
		}

		order, err := repo.FindOrderByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}

		sellerCents, feeCents := SplitAmount(order.AmountCents, order.FeePercent)

		productName := "Produto"
		if product, err := s.products.FindByID(ctx, order.ProductID); err == nil {
			productName = product.Name
		}

		saleDesc := fmt.Sprintf("Venda: %s", productName)
		if err := s.createTransaction(ctx, repo, &models.Transaction{
			OrderID:     &order.ID,
			UserID:      order.SellerID,
			Type:        enums.TransactionTypeSale,
			Status:      enums.TransactionStatusCompleted,
			AmountCents: sellerCents,
			Description: &saleDesc,
		}); err != nil {
			return err
		}

		feeDesc := fmt.Sprintf("Taxa plataforma: %d%%", order.FeePercent)
		if err := s.createTransaction(ctx, repo, &models.Transaction{
			OrderID:     &order.ID,
			UserID:      order.SellerID,
			Type:        enums.TransactionTypePlatformFee,
			Status:      enums.TransactionStatusCompleted,
			AmountCents: feeCents,
			Description: &feeDesc,
		}); err != nil {
			return err
		}

		if err := repo.CreatePlatformFee(ctx, &models.PlatformFee{
			OrderID:     order.ID,
			SellerID:    order.SellerID,
			AmountCents: feeCents,
			FeePercent:  order.FeePercent,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create platform fee")
		}

		if err := repo.IncrementSalesCount(ctx, order.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment sales count")
		}

		buyerID, err := s.enrollments.ResolveAndGrant(ctx, tx, order.BuyerName, order.BuyerEmail, order.ProductID, order.ID)
		if err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"buyer_id": buyerID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link buyer to order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderPaidEvent{
				OrderID:        order.ID,
				ProductID:      order.ProductID,
				SellerID:       order.SellerID,
				BuyerID:        buyerID,
				AmountCents:    order.AmountCents,
				SellerNetCents: sellerCents,
				FeeCents:       feeCents,
				PaidAt:         now,
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}

		s.transition(ctx, orderID, enums.OrderStatusPaid, opts.Source)
		return nil
	})
}

func (s *service) applyFailed(ctx context.Context, orderID uuid.UUID, opts ApplyOptions) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := map[string]any{}
		if opts.FailureReason != nil {
			updates["failure_reason"] = *opts.FailureReason
		}
		moved, err := repo.TransitionStatus(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusFailed, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition order to failed")
		}
		if !moved {
			s.noop(ctx, orderID, enums.OrderStatusFailed, opts.Source)
			return nil
		}

		order, err := repo.FindOrderByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}

		reason := ""
		if order.FailureReason != nil {
			reason = *order.FailureReason
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderFailedEvent{
				OrderID:  order.ID,
				SellerID: order.SellerID,
				Reason:   reason,
				FailedAt: time.Now().UTC(),
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}

		s.transition(ctx, orderID, enums.OrderStatusFailed, opts.Source)
		return nil
	})
}

func (s *service) applyReversal(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, opts ApplyOptions) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		moved, err := repo.TransitionStatus(ctx, orderID, enums.OrderStatusPaid, target, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("transition order to %s", target))
		}
		if !moved {
			s.noop(ctx, orderID, target, opts.Source)
			return nil
		}

		order, err := repo.FindOrderByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}

		description := "Estorno realizado"
		eventType := enums.EventOrderRefunded
		if target == enums.OrderStatusChargeback {
			description = "Chargeback - contestacao de pagamento"
			eventType = enums.EventOrderChargeback
		}
		if err := s.createTransaction(ctx, repo, &models.Transaction{
			OrderID:     &order.ID,
			UserID:      order.SellerID,
			Type:        enums.TransactionTypeRefund,
			Status:      enums.TransactionStatusCompleted,
			AmountCents: order.AmountCents,
			Description: &description,
		}); err != nil {
			return err
		}

		var data any
		if target == enums.OrderStatusChargeback {
			data = payloads.OrderChargebackEvent{
				OrderID:     order.ID,
				SellerID:    order.SellerID,
				AmountCents: order.AmountCents,
				ReversedAt:  time.Now().UTC(),
			}
		} else {
			data = payloads.OrderRefundedEvent{
				OrderID:     order.ID,
				SellerID:    order.SellerID,
				AmountCents: order.AmountCents,
				RefundedAt:  time.Now().UTC(),
			}
		}
		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data:          data,
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}

		s.transition(ctx, orderID, target, opts.Source)
		return nil
	})
}

// createTransaction inserts a ledger row. The repository swallows the
// (order_id, type) conflict, so a replayed fan-out is already-done here.
func (s *service) createTransaction(ctx context.Context, repo Repository, txn *models.Transaction) error {
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("create %s transaction", txn.Type))
	}
	return nil
}

func (s *service) feePercent(ctx context.Context) int {
	if s.fees != nil {
		if percent, err := s.fees.FeePercent(ctx); err == nil && percent >= 0 && percent <= 100 {
			return percent
		}
	}
	if s.platform.DefaultFeePercent >= 0 && s.platform.DefaultFeePercent <= 100 {
		return s.platform.DefaultFeePercent
	}
	return 15
}

func (s *service) transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, source string) {
	s.metrics.IncTransition(target.String(), source)
	if s.logg != nil {
		fields := map[string]any{"target_status": target.String(), "source": source}
		s.logg.Info(s.logg.WithFields(s.withOrderLog(ctx, orderID), fields), "order status transition applied")
	}
}

func (s *service) noop(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, source string) {
	s.metrics.IncNoop(target.String(), source)
	if s.logg != nil {
		fields := map[string]any{"target_status": target.String(), "source": source}
		s.logg.Info(s.logg.WithFields(s.withOrderLog(ctx, orderID), fields), "order status transition skipped")
	}
}

func (s *service) withOrderLog(ctx context.Context, orderID uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithOrderID(ctx, orderID.String())
}

func mapWebhookEvent(eventType string) (enums.OrderStatus, bool) {
	switch eventType {
	case "charge.paid", "order.paid":
		return enums.OrderStatusPaid, true
	case "charge.payment_failed", "order.payment_failed":
		return enums.OrderStatusFailed, true
	case "charge.refunded":
		return enums.OrderStatusRefunded, true
	case "charge.chargeback", "charge.chargedback":
		return enums.OrderStatusChargeback, true
	default:
		return "", false
	}
}

func mapChargeStatus(status string) (enums.OrderStatus, bool) {
	switch status {
	case pagarme.ChargeStatusPaid, pagarme.ChargeStatusOverpaid:
		return enums.OrderStatusPaid, true
	case pagarme.ChargeStatusFailed:
		return enums.OrderStatusFailed, true
	case pagarme.ChargeStatusChargedback:
		return enums.OrderStatusChargeback, true
	default:
		return "", false
	}
}

func applyChargeDetails(order *models.Order, charge *pagarme.Charge, updates map[string]any) {
	if charge == nil || charge.LastTransaction == nil {
		return
	}
	last := charge.LastTransaction
	switch order.PaymentMethod {
	case enums.PaymentMethodPix:
		if last.QRCode != "" {
			qr := last.QRCode
			order.PixQRCode = &qr
			updates["pix_qr_code"] = qr
		}
		if last.QRCodeURL != "" {
			url := last.QRCodeURL
			order.PixQRCodeURL = &url
			updates["pix_qr_code_url"] = url
		}
		if last.ExpiresAt != nil {
			order.PixExpiresAt = last.ExpiresAt
			updates["pix_expires_at"] = *last.ExpiresAt
		}
	case enums.PaymentMethodCreditCard:
		if last.Card != nil {
			if last.Card.LastFourDigits != "" {
				digits := last.Card.LastFourDigits
				order.CardLastDigits = &digits
				updates["card_last_digits"] = digits
			}
			if last.Card.Brand != "" {
				brand := last.Card.Brand
				order.CardBrand = &brand
				updates["card_brand"] = brand
			}
		}
	}
}

func failureReason(charge *pagarme.Charge) *string {
	if charge == nil || charge.LastTransaction == nil || charge.LastTransaction.AcquirerMessage == "" {
		return nil
	}
	msg := charge.LastTransaction.AcquirerMessage
	return &msg
}

func buildInitiateResult(order *models.Order) *InitiateOrderResult {
	result := &InitiateOrderResult{
		OrderID:       order.ID,
		Status:        order.Status,
		AmountCents:   order.AmountCents,
		AmountDisplay: money.Display(order.AmountCents),
		PaymentMethod: order.PaymentMethod,
	}
	switch order.PaymentMethod {
	case enums.PaymentMethodPix:
		pix := &PixDetails{ExpiresAt: order.PixExpiresAt}
		if order.PixQRCode != nil {
			pix.QRCode = *order.PixQRCode
		}
		if order.PixQRCodeURL != nil {
			pix.QRCodeURL = *order.PixQRCodeURL
		}
		result.Pix = pix
	case enums.PaymentMethodCreditCard:
		card := &CardDetails{}
		if order.CardLastDigits != nil {
			card.LastDigits = *order.CardLastDigits
		}
		if order.CardBrand != nil {
			card.Brand = *order.CardBrand
		}
		result.Card = card
	}
	return result
}

func cardParams(card *CardInput) *pagarme.CardParams {
	if card == nil {
		return nil
	}
	return &pagarme.CardParams{
		Number:       card.Number,
		HolderName:   card.HolderName,
		ExpMonth:     card.ExpMonth,
		ExpYear:      card.ExpYear,
		CVV:          card.CVV,
		Installments: card.Installments,
		BillingZip:   card.BillingZip,
		BillingCity:  card.BillingCity,
		BillingState: card.BillingState,
		BillingLine:  card.BillingLine,
	}
}

func validateBuyer(buyer BuyerInput) error {
	if strings.TrimSpace(buyer.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer name required")
	}
	if normalizeEmail(buyer.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer email required")
	}
	return nil
}

func validatePayment(method enums.PaymentMethod, card *CardInput) error {
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if method == enums.PaymentMethodCreditCard && card == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "card data required for credit card payments")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
