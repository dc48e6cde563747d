package pagarme

import (
	"time"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// OrderCreateParams carries everything needed to open a gateway order with
// the platform split applied.
type OrderCreateParams struct {
	ProductCode         string
	ProductName         string
	AmountCents         int64
	Buyer               CustomerParams
	PaymentMethod       enums.PaymentMethod
	Card                *CardParams
	PixExpiresIn        int
	SellerRecipientID   string
	PlatformRecipientID string
	FeePercent          int
}

// CustomerParams identifies the paying customer on the gateway side.
type CustomerParams struct {
	Name     string
	Email    string
	Document string
	Phone    string
}

// CardParams holds raw card data for credit card charges. Never logged.
type CardParams struct {
	Number       string
	HolderName   string
	ExpMonth     int
	ExpYear      int
	CVV          string
	Installments int
	BillingZip   string
	BillingCity  string
	BillingState string
	BillingLine  string
}

// RecipientCreateParams registers a seller as a split recipient.
type RecipientCreateParams struct {
	Name            string
	Email           string
	Document        string
	BankCode        string
	BranchNumber    string
	AccountNumber   string
	AccountDigit    string
	AccountType     string
	TransferDay     int
	TransferEnabled bool
}

type orderRequest struct {
	Items    []orderItem    `json:"items"`
	Customer orderCustomer  `json:"customer"`
	Payments []orderPayment `json:"payments"`
	Split    []splitRule    `json:"split"`
}

type orderItem struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Code        string `json:"code"`
}

type orderCustomer struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Document string          `json:"document,omitempty"`
	Type     string          `json:"type"`
	Phones   *customerPhones `json:"phones,omitempty"`
}

type customerPhones struct {
	MobilePhone mobilePhone `json:"mobile_phone"`
}

type mobilePhone struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	Number      string `json:"number"`
}

type orderPayment struct {
	PaymentMethod string             `json:"payment_method"`
	Pix           *pixPayment        `json:"pix,omitempty"`
	CreditCard    *creditCardPayment `json:"credit_card,omitempty"`
}

type pixPayment struct {
	ExpiresIn int `json:"expires_in"`
}

type creditCardPayment struct {
	Installments   int             `json:"installments"`
	Card           cardData        `json:"card"`
	BillingAddress *billingAddress `json:"billing_address,omitempty"`
}

type cardData struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVV        string `json:"cvv"`
}

type billingAddress struct {
	Line1   string `json:"line_1"`
	ZipCode string `json:"zip_code"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type splitRule struct {
	Amount      int          `json:"amount"`
	RecipientID string       `json:"recipient_id"`
	Type        string       `json:"type"`
	Options     splitOptions `json:"options"`
}

type splitOptions struct {
	ChargeProcessingFee bool `json:"charge_processing_fee"`
	Liable              bool `json:"liable"`
}

type recipientRequest struct {
	Name               string               `json:"name"`
	Email              string               `json:"email"`
	Document           string               `json:"document"`
	Type               string               `json:"type"`
	DefaultBankAccount bankAccount          `json:"default_bank_account"`
	TransferSettings   transferSettings     `json:"transfer_settings"`
	Anticipation       anticipationSettings `json:"automatic_anticipation_settings"`
}

type bankAccount struct {
	HolderName       string `json:"holder_name"`
	HolderType       string `json:"holder_type"`
	HolderDocument   string `json:"holder_document"`
	Bank             string `json:"bank"`
	BranchNumber     string `json:"branch_number"`
	BranchCheckDigit string `json:"branch_check_digit"`
	AccountNumber    string `json:"account_number"`
	AccountDigit     string `json:"account_check_digit"`
	Type             string `json:"type"`
}

type transferSettings struct {
	TransferEnabled  bool   `json:"transfer_enabled"`
	TransferInterval string `json:"transfer_interval"`
	TransferDay      int    `json:"transfer_day"`
}

type anticipationSettings struct {
	Enabled bool `json:"enabled"`
}

type transferRequest struct {
	Amount   int64  `json:"amount"`
	SourceID string `json:"source_id"`
}

// Order is the gateway order resource returned by create and get calls.
type Order struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	Charges   []Charge  `json:"charges"`
	CreatedAt time.Time `json:"created_at"`
}

// Charge is a payment attempt attached to an order.
type Charge struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	PaymentMethod   string           `json:"payment_method"`
	Amount          int64            `json:"amount"`
	PaidAt          *time.Time       `json:"paid_at,omitempty"`
	LastTransaction *LastTransaction `json:"last_transaction,omitempty"`
}

// LastTransaction holds method-specific settlement details for a charge.
type LastTransaction struct {
	Status          string     `json:"status"`
	QRCode          string     `json:"qr_code,omitempty"`
	QRCodeURL       string     `json:"qr_code_url,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	AcquirerMessage string     `json:"acquirer_message,omitempty"`
	Card            *CardInfo  `json:"card,omitempty"`
}

// CardInfo is the safe card summary returned by the gateway.
type CardInfo struct {
	LastFourDigits string `json:"last_four_digits"`
	Brand          string `json:"brand"`
}

// Recipient is a registered split recipient.
type Recipient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// Balance reports a recipient's funds in cents.
type Balance struct {
	Currency         string        `json:"currency"`
	AvailableAmount  int64         `json:"available_amount"`
	WaitingFunds     int64         `json:"waiting_funds_amount"`
	TransferredTotal int64         `json:"transferred_amount"`
	RecipientRef     *RecipientRef `json:"recipient,omitempty"`
}

// RecipientRef is the recipient summary embedded in balance responses.
type RecipientRef struct {
	ID string `json:"id"`
}

// Transfer is a payout from a recipient's balance to their bank account.
type Transfer struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type apiError struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Gateway order and charge statuses the settlement flow reconciles against.
const (
	OrderStatusPaid     = "paid"
	OrderStatusFailed   = "failed"
	OrderStatusCanceled = "canceled"
	OrderStatusPending  = "pending"

	ChargeStatusPaid        = "paid"
	ChargeStatusFailed      = "failed"
	ChargeStatusOverpaid    = "overpaid"
	ChargeStatusUnderpaid   = "underpaid"
	ChargeStatusChargedback = "chargedback"
)

// WebhookEvent is the envelope Pagar.me posts to the webhook endpoint. Only
// the charge identity is read; the current charge state is always re-fetched
// or mapped from the event type rather than trusted from the payload.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}
