package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/pkg/config"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
)

// Service reads and updates platform-wide settings. It backs the fee lookup
// used by settlement.
type Service interface {
	FeePercent(ctx context.Context) (int, error)
	SetFeePercent(ctx context.Context, percent int, updatedBy uuid.UUID) error
}

type service struct {
	db       *gorm.DB
	fallback config.PlatformConfig
	logg     *logger.Logger
}

// NewService builds the platform settings service.
func NewService(db *gorm.DB, fallback config.PlatformConfig, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: db, fallback: fallback, logg: logg}, nil
}

func (s *service) FeePercent(ctx context.Context) (int, error) {
	var settings models.PlatformSettings
	err := s.db.WithContext(ctx).Order("created_at DESC").First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fallback.DefaultFeePercent, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform settings")
	}
	return settings.FeePercent, nil
}

func (s *service) SetFeePercent(ctx context.Context, percent int, updatedBy uuid.UUID) error {
	if percent < 0 || percent > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "fee percent must be between 0 and 100")
	}

	var settings models.PlatformSettings
	err := s.db.WithContext(ctx).Order("created_at DESC").First(&settings).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created := models.PlatformSettings{FeePercent: percent, UpdatedBy: &updatedBy}
		if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create platform settings")
		}
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform settings")
	default:
		updates := map[string]any{"fee_percent": percent, "updated_by": updatedBy}
		if err := s.db.WithContext(ctx).Model(&models.PlatformSettings{}).
			Where("id = ?", settings.ID).Updates(updates).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update platform settings")
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "fee_percent", percent), "platform fee updated")
	}
	return nil
}
