package recipients

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// Repository exposes payout recipient persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, recipient *models.Recipient) (*models.Recipient, error)
	FindBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Recipient, error)
	FindActiveBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Recipient, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RecipientStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a recipients repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, recipient *models.Recipient) (*models.Recipient, error) {
	if err := r.db.WithContext(ctx).Create(recipient).Error; err != nil {
		return nil, err
	}
	return recipient, nil
}

func (r *repository) FindBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Recipient, error) {
	var recipient models.Recipient
	err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&recipient).Error
	if err != nil {
		return nil, err
	}
	return &recipient, nil
}

func (r *repository) FindActiveBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Recipient, error) {
	var recipient models.Recipient
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status = ?", sellerID, enums.RecipientStatusActive).
		First(&recipient).Error
	if err != nil {
		return nil, err
	}
	return &recipient, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RecipientStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Recipient{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}
