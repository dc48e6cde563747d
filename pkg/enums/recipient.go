package enums

import "fmt"

// RecipientStatus mirrors the gateway lifecycle of a seller payout recipient.
type RecipientStatus string

const (
	RecipientStatusPending  RecipientStatus = "pending"
	RecipientStatusActive   RecipientStatus = "active"
	RecipientStatusRefused  RecipientStatus = "refused"
	RecipientStatusInactive RecipientStatus = "inactive"
)

var validRecipientStatuses = []RecipientStatus{
	RecipientStatusPending,
	RecipientStatusActive,
	RecipientStatusRefused,
	RecipientStatusInactive,
}

// String implements fmt.Stringer.
func (r RecipientStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecipientStatus.
func (r RecipientStatus) IsValid() bool {
	for _, candidate := range validRecipientStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecipientStatus converts raw input into a RecipientStatus.
func ParseRecipientStatus(value string) (RecipientStatus, error) {
	for _, candidate := range validRecipientStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recipient status %q", value)
}
