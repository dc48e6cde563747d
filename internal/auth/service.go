package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/internal/users"
	pkgauth "github.com/vendalivre/vendalivre-backend/pkg/auth"
	"github.com/vendalivre/vendalivre-backend/pkg/auth/session"
	"github.com/vendalivre/vendalivre-backend/pkg/config"
	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// memberTokenTTLMinutes caps the auto login token handed out by the public
// order status endpoint.
const memberTokenTTLMinutes = 15

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type backfiller interface {
	BackfillForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, email string) (int, error)
}

// Service handles registration, login, and session lifecycle.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	// IssueMemberToken mints a short lived access token with a live session
	// for the buyer resolved during settlement, so a paid checkout lands
	// straight in the member area.
	IssueMemberToken(ctx context.Context, userID uuid.UUID) (string, error)
}

// ServiceParams bundles the auth service dependencies.
type ServiceParams struct {
	Users       users.Repository
	Session     sessionManager
	Enrollments backfiller
	JWT         config.JWTConfig
	Password    config.PasswordConfig
	Logger      *logger.Logger
}

type service struct {
	users       users.Repository
	session     sessionManager
	enrollments backfiller
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService builds the auth service.
func NewService(p ServiceParams) (Service, error) {
	if p.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if p.Session == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		users:       p.Users,
		session:     p.Session,
		enrollments: p.Enrollments,
		jwtCfg:      p.JWT,
		passwordCfg: p.Password,
		logg:        p.Logger,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := users.NormalizeEmail(req.Email)
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email required")
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	role := req.Role
	if role == "" {
		role = enums.UserRoleSeller
	}
	if role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot self-register as admin")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && security.IsShadowHash(existing.PasswordHash):
		// Checkout provisioned this account before the buyer registered.
		// Claiming it keeps the enrollments granted at settlement.
		updates := map[string]any{
			"password_hash": hash,
			"name":          name,
			"role":          role,
		}
		if err := s.users.Update(ctx, existing.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim shadow account")
		}
		existing, err = s.users.FindByID(ctx, existing.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
		}
		return s.establishSession(ctx, existing)
	case err == nil:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user by email")
	}

	created, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, created.ID.String()), "user registered")
	}
	return s.establishSession(ctx, created)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "record last login", err)
	}

	// Claim any orders paid with this email before the account linked them.
	if s.enrollments != nil {
		if _, err := s.enrollments.BackfillForUser(ctx, nil, user.ID, user.Email); err != nil && s.logg != nil {
			s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "enrollment backfill on login", err)
		}
	}

	return s.establishSession(ctx, user)
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, refreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &AuthResponse{
		User:   users.FromModel(user),
		Tokens: TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return users.FromModel(user), nil
}

func (s *service) IssueMemberToken(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "account blocked")
	}

	cfg := s.jwtCfg
	if cfg.ExpirationMinutes <= 0 || cfg.ExpirationMinutes > memberTokenTTLMinutes {
		cfg.ExpirationMinutes = memberTokenTTLMinutes
	}

	accessID := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	// The refresh token is discarded; the buyer gets a full session by
	// registering or logging in.
	if _, err := s.session.Generate(ctx, accessID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return token, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user by email")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	// Shadow accounts have no password yet; the buyer must register first.
	if security.IsShadowHash(user.PasswordHash) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) establishSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	return &AuthResponse{
		User:   users.FromModel(user),
		Tokens: TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
	}, nil
}
