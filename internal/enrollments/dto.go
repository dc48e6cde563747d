package enrollments

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// MemberContent is the gated payload returned once an active enrollment is
// verified.
type MemberContent struct {
	ProductID   uuid.UUID         `json:"product_id"`
	ProductName string            `json:"product_name"`
	ProductType enums.ProductType `json:"product_type"`
	ContentURL  *string           `json:"content_url,omitempty"`
}

// MemberItem is one purchased product in the buyer's member area.
type MemberItem struct {
	EnrollmentID uuid.UUID              `json:"enrollment_id"`
	ProductID    uuid.UUID              `json:"product_id"`
	ProductName  string                 `json:"product_name"`
	ProductType  enums.ProductType      `json:"product_type"`
	ContentURL   *string                `json:"content_url,omitempty"`
	Status       enums.EnrollmentStatus `json:"status"`
	EnrolledAt   time.Time              `json:"enrolled_at"`
}
