package pagarme

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/config"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/metrics"
)

var (
	errAPIKeyRequired = errors.New("pagarme api key is required")
	errLoggerRequired = errors.New("pagarme logger is required")
)

// Client wraps the Pagar.me core v5 REST API with centralized auth, logging,
// timing, and error mapping. There is no official Go SDK, so requests are
// built by hand against the documented JSON shapes.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	apiKey           string
	webhookSecret    string
	pixExpirySeconds int
	logger           *logger.Logger
	metrics          *metrics.SettlementMetrics
}

// NewClient validates credentials and builds the gateway wrapper.
func NewClient(ctx context.Context, cfg config.PagarmeConfig, logg *logger.Logger, m *metrics.SettlementMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient:       &http.Client{Timeout: timeout},
		baseURL:          baseURL,
		apiKey:           apiKey,
		webhookSecret:    strings.TrimSpace(cfg.WebhookSecret),
		pixExpirySeconds: cfg.PixExpirySeconds,
		logger:           logg,
		metrics:          m,
	}

	logg.Info(ctx, "pagarme client initialized")
	return c, nil
}

// SigningSecret returns the webhook basic auth secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// NewIdempotencyKey returns a unique key for gateway operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "vl"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreateOrder opens a gateway order with the platform split attached.
func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*Order, error) {
	req := params.toRequest(c.pixExpirySeconds)
	c.log(ctx, "request", "create_order", map[string]any{
		"product_code":   params.ProductCode,
		"amount":         params.AmountCents,
		"payment_method": params.PaymentMethod,
		"fee_percent":    params.FeePercent,
	})

	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", "create_order", req, &order); err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"gateway_order_id": order.ID,
		"status":           order.Status,
	})
	return &order, nil
}

// GetOrder fetches the current gateway state of an order.
func (c *Client) GetOrder(ctx context.Context, gatewayOrderID string) (*Order, error) {
	c.log(ctx, "request", "get_order", map[string]any{"gateway_order_id": gatewayOrderID})

	var order Order
	path := fmt.Sprintf("/orders/%s", gatewayOrderID)
	if err := c.do(ctx, http.MethodGet, path, "get_order", nil, &order); err != nil {
		c.log(ctx, "error", "get_order", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_order", map[string]any{
		"gateway_order_id": order.ID,
		"status":           order.Status,
	})
	return &order, nil
}

// GetCharge fetches a single charge by gateway ID.
func (c *Client) GetCharge(ctx context.Context, chargeID string) (*Charge, error) {
	c.log(ctx, "request", "get_charge", map[string]any{"charge_id": chargeID})

	var charge Charge
	path := fmt.Sprintf("/charges/%s", chargeID)
	if err := c.do(ctx, http.MethodGet, path, "get_charge", nil, &charge); err != nil {
		c.log(ctx, "error", "get_charge", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_charge", map[string]any{
		"charge_id": charge.ID,
		"status":    charge.Status,
	})
	return &charge, nil
}

// CreateRecipient registers a seller as a split recipient.
func (c *Client) CreateRecipient(ctx context.Context, params RecipientCreateParams) (*Recipient, error) {
	req := params.toRequest()
	c.log(ctx, "request", "create_recipient", map[string]any{"email": params.Email})

	var recipient Recipient
	if err := c.do(ctx, http.MethodPost, "/recipients", "create_recipient", req, &recipient); err != nil {
		c.log(ctx, "error", "create_recipient", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_recipient", map[string]any{
		"recipient_id": recipient.ID,
		"status":       recipient.Status,
	})
	return &recipient, nil
}

// GetRecipientBalance reads a recipient's available and waiting funds.
func (c *Client) GetRecipientBalance(ctx context.Context, recipientID string) (*Balance, error) {
	c.log(ctx, "request", "get_recipient_balance", map[string]any{"recipient_id": recipientID})

	var balance Balance
	path := fmt.Sprintf("/recipients/%s/balance", recipientID)
	if err := c.do(ctx, http.MethodGet, path, "get_recipient_balance", nil, &balance); err != nil {
		c.log(ctx, "error", "get_recipient_balance", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_recipient_balance", map[string]any{
		"recipient_id": recipientID,
		"available":    balance.AvailableAmount,
	})
	return &balance, nil
}

// CreateTransfer pays out from a recipient balance to their bank account.
func (c *Client) CreateTransfer(ctx context.Context, recipientID string, amountCents int64) (*Transfer, error) {
	req := transferRequest{Amount: amountCents, SourceID: recipientID}
	c.log(ctx, "request", "create_transfer", map[string]any{
		"recipient_id": recipientID,
		"amount":       amountCents,
	})

	var transfer Transfer
	if err := c.do(ctx, http.MethodPost, "/transfers", "create_transfer", req, &transfer); err != nil {
		c.log(ctx, "error", "create_transfer", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_transfer", map[string]any{
		"transfer_id": transfer.ID,
		"status":      transfer.Status,
	})
	return &transfer, nil
}

func (c *Client) do(ctx context.Context, method, path, op string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("pagarme %s encode failed", op))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("pagarme %s request failed", op))
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveGateway(op, time.Since(start))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("pagarme %s failed", op))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("pagarme %s read failed", op))
	}

	if resp.StatusCode >= 400 {
		return c.mapAPIError(resp.StatusCode, raw, op)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("pagarme %s decode failed", op))
		}
	}
	return nil
}

func (c *Client) mapAPIError(status int, raw []byte, op string) error {
	var payload apiError
	message := fmt.Sprintf("pagarme %s failed", op)
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		message = fmt.Sprintf("pagarme %s failed: %s", op, payload.Message)
	}
	return pkgerrors.New(domainCodeForStatus(status), message)
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusPaymentRequired:
		return pkgerrors.CodePaymentFailed
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("pagarme %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("pagarme %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "cvv", "cvc", "secret", "email", "phone", "document"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
