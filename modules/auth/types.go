package auth

import (
	"time"

	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/user"
)

// UserView is a user as it leaves the auth module. It never carries the
// password hash.
type UserView struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserView projects a stored user onto its public shape.
func NewUserView(u *domain.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		UserName:  u.UserName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// RegisterResponse represents a user registration response.
type RegisterResponse struct {
	User    *UserView     `json:"user,omitempty"`
	Failure *apperr.Error `json:"failure,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// LoginResponse represents a user login response with tokens.
type LoginResponse struct {
	AccessToken      string        `json:"accessToken,omitempty"`
	RefreshToken     string        `json:"refreshToken,omitempty"`
	RefreshExpiresAt time.Time     `json:"refreshExpiresAt,omitempty"`
	User             *UserView     `json:"user,omitempty"`
	Failure          *apperr.Error `json:"failure,omitempty"`
}

// LogoutRequest carries the authenticated caller and the token to revoke.
type LogoutRequest struct {
	UserID       uint   `json:"userId"`
	RefreshToken string `json:"refreshToken"`
}

// LogoutResponse represents a logout response.
type LogoutResponse struct {
	Failure *apperr.Error `json:"failure,omitempty"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse represents a token refresh response.
type RefreshResponse struct {
	AccessToken      string        `json:"accessToken,omitempty"`
	RefreshToken     string        `json:"refreshToken,omitempty"`
	RefreshExpiresAt time.Time     `json:"refreshExpiresAt,omitempty"`
	UserID           uint          `json:"userId,omitempty"`
	Failure          *apperr.Error `json:"failure,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	UserID  uint          `json:"userId,omitempty"`
	Failure *apperr.Error `json:"failure,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID uint `json:"userId"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	User    *UserView     `json:"user,omitempty"`
	Failure *apperr.Error `json:"failure,omitempty"`
}
