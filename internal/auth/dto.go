package auth

import (
	"github.com/vendalivre/vendalivre-backend/internal/users"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
)

// RegisterRequest creates a seller account, or claims a shadow buyer account
// provisioned at checkout.
type RegisterRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Role     enums.UserRole `json:"role,omitempty"`
}

// LoginRequest carries the credentials for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest rotates a refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenPair is an access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned from register, login, and refresh.
type AuthResponse struct {
	User   *users.UserDTO `json:"user"`
	Tokens TokenPair      `json:"tokens"`
}
