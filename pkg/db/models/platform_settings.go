package models

import (
	"time"

	"github.com/google/uuid"
)

// PlatformSettings holds singleton platform configuration, keyed by name so
// settings can roll out without schema changes.
type PlatformSettings struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FeePercent int        `gorm:"column:fee_percent;not null;default:15"`
	UpdatedBy  *uuid.UUID `gorm:"column:updated_by;type:uuid"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
