package pagarme

import (
	"strings"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

const (
	holderTypeIndividual = "individual"
	holderTypeCompany    = "company"

	splitTypePercentage = "percentage"

	defaultBankCode     = "001"
	defaultBranchNumber = "0001"
	defaultAccountType  = "checking"
	defaultTransferDay  = 5
)

func (p OrderCreateParams) toRequest(defaultPixExpiry int) orderRequest {
	sellerPercent := 100 - p.FeePercent

	req := orderRequest{
		Items: []orderItem{{
			Amount:      p.AmountCents,
			Description: p.ProductName,
			Quantity:    1,
			Code:        p.ProductCode,
		}},
		Customer: p.Buyer.toRequest(),
		Split: []splitRule{
			{
				Amount:      sellerPercent,
				RecipientID: p.SellerRecipientID,
				Type:        splitTypePercentage,
				Options: splitOptions{
					ChargeProcessingFee: true,
					Liable:              true,
				},
			},
			{
				Amount:      p.FeePercent,
				RecipientID: p.PlatformRecipientID,
				Type:        splitTypePercentage,
				Options: splitOptions{
					ChargeProcessingFee: false,
					Liable:              false,
				},
			},
		},
	}

	switch p.PaymentMethod {
	case enums.PaymentMethodPix:
		expiry := p.PixExpiresIn
		if expiry <= 0 {
			expiry = defaultPixExpiry
		}
		req.Payments = []orderPayment{{
			PaymentMethod: string(enums.PaymentMethodPix),
			Pix:           &pixPayment{ExpiresIn: expiry},
		}}
	case enums.PaymentMethodCreditCard:
		req.Payments = []orderPayment{{
			PaymentMethod: string(enums.PaymentMethodCreditCard),
			CreditCard:    p.Card.toRequest(),
		}}
	}

	return req
}

func (p CustomerParams) toRequest() orderCustomer {
	cust := orderCustomer{
		Name:     p.Name,
		Email:    p.Email,
		Document: digitsOnly(p.Document),
		Type:     holderTypeIndividual,
	}
	if phone := digitsOnly(p.Phone); len(phone) > 2 {
		cust.Phones = &customerPhones{
			MobilePhone: mobilePhone{
				CountryCode: "55",
				AreaCode:    phone[:2],
				Number:      phone[2:],
			},
		}
	}
	return cust
}

func (p *CardParams) toRequest() *creditCardPayment {
	if p == nil {
		return nil
	}
	installments := p.Installments
	if installments < 1 {
		installments = 1
	}
	payment := &creditCardPayment{
		Installments: installments,
		Card: cardData{
			Number:     digitsOnly(p.Number),
			HolderName: p.HolderName,
			ExpMonth:   p.ExpMonth,
			ExpYear:    p.ExpYear,
			CVV:        p.CVV,
		},
	}
	if p.BillingZip != "" {
		payment.BillingAddress = &billingAddress{
			Line1:   p.BillingLine,
			ZipCode: digitsOnly(p.BillingZip),
			City:    p.BillingCity,
			State:   p.BillingState,
			Country: "BR",
		}
	}
	return payment
}

func (p RecipientCreateParams) toRequest() recipientRequest {
	document := digitsOnly(p.Document)
	holderType := holderTypeIndividual
	if len(document) > 11 {
		holderType = holderTypeCompany
	}

	bank := p.BankCode
	if bank == "" {
		bank = defaultBankCode
	}
	branch := p.BranchNumber
	if branch == "" {
		branch = defaultBranchNumber
	}
	accountType := p.AccountType
	if accountType == "" {
		accountType = defaultAccountType
	}
	transferDay := p.TransferDay
	if transferDay <= 0 {
		transferDay = defaultTransferDay
	}

	return recipientRequest{
		Name:     p.Name,
		Email:    p.Email,
		Document: document,
		Type:     holderType,
		DefaultBankAccount: bankAccount{
			HolderName:       p.Name,
			HolderType:       holderType,
			HolderDocument:   document,
			Bank:             bank,
			BranchNumber:     branch,
			BranchCheckDigit: "0",
			AccountNumber:    p.AccountNumber,
			AccountDigit:     p.AccountDigit,
			Type:             accountType,
		},
		TransferSettings: transferSettings{
			TransferEnabled:  p.TransferEnabled,
			TransferInterval: "monthly",
			TransferDay:      transferDay,
		},
		Anticipation: anticipationSettings{Enabled: false},
	}
}

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
