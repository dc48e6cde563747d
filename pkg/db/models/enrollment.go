package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// Enrollment grants a buyer access to a product. Unique on (user_id,
// product_id) so repeated purchases and webhook replays collapse to one row.
type Enrollment struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_enrollments_user_product"`
	ProductID uuid.UUID              `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_enrollments_user_product"`
	OrderID   *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Status    enums.EnrollmentStatus `gorm:"column:status;type:enrollment_status;not null;default:'active'"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
