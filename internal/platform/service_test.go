package platform

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/pkg/config"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
)

func setupPlatformTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	settings := `
CREATE TABLE IF NOT EXISTS platform_settings (
  id TEXT PRIMARY KEY,
  fee_percent INTEGER NOT NULL DEFAULT 15,
  updated_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(settings).Error)
	return db
}

func TestFeePercentFallsBackToConfig(t *testing.T) {
	db := setupPlatformTestDB(t)
	svc, err := NewService(db, config.PlatformConfig{DefaultFeePercent: 15}, nil)
	require.NoError(t, err)

	percent, err := svc.FeePercent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, percent)
}

func TestSetFeePercentRoundTrip(t *testing.T) {
	db := setupPlatformTestDB(t)
	svc, err := NewService(db, config.PlatformConfig{DefaultFeePercent: 15}, nil)
	require.NoError(t, err)
	admin := uuid.New()

	require.NoError(t, svc.SetFeePercent(context.Background(), 20, admin))

	percent, err := svc.FeePercent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, percent)

	// Second write updates the existing row.
	require.NoError(t, svc.SetFeePercent(context.Background(), 12, admin))
	percent, err = svc.FeePercent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, percent)
}

func TestSetFeePercentBounds(t *testing.T) {
	db := setupPlatformTestDB(t)
	svc, err := NewService(db, config.PlatformConfig{}, nil)
	require.NoError(t, err)

	for _, percent := range []int{-1, 101} {
		err := svc.SetFeePercent(context.Background(), percent, uuid.New())
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}
