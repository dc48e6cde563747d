package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/vendalivre/vendalivre-backend/pkg/db"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT,
  document TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT idx_users_email UNIQUE (email)
);`
	require.NoError(t, db.Exec(users).Error)
	return db
}

func TestCreateNormalizesEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	email := "User+" + uuid.NewString() + "@Example.COM"
	created, err := repo.Create(ctx, &models.User{
		ID:           uuid.New(),
		Email:        "  " + email + " ",
		PasswordHash: "hash",
		Name:         "User",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	})
	require.NoError(t, err)

	found, err := repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, NormalizeEmail(email), found.Email)
}

func TestCreateDuplicateEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	email := uuid.NewString() + "@example.com"
	_, err := repo.Create(ctx, &models.User{
		ID: uuid.New(), Email: email, PasswordHash: "hash", Name: "A", Role: enums.UserRoleCustomer, IsActive: true,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{
		ID: uuid.New(), Email: email, PasswordHash: "hash", Name: "B", Role: enums.UserRoleCustomer, IsActive: true,
	})
	require.Error(t, err)
	assert.True(t, dbpkg.IsUniqueViolation(err, ""))
}

func TestTouchLastLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, &models.User{
		ID: uuid.New(), Email: uuid.NewString() + "@example.com", PasswordHash: "hash", Name: "A",
		Role: enums.UserRoleCustomer, IsActive: true,
	})
	require.NoError(t, err)
	require.Nil(t, user.LastLoginAt)

	require.NoError(t, repo.TouchLastLogin(ctx, user.ID))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLoginAt)
}
