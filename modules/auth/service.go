package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/user"
)

var (
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "Incorrect username or password.")
	// ErrMissingFields is returned when a registration field is empty.
	ErrMissingFields = apperr.New(apperr.KindValidation, "Email, name, username and password are required.")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = apperr.New(apperr.KindValidation, "Invalid email format.")
	// ErrRefreshTokenRequired is returned when no refresh token was supplied.
	ErrRefreshTokenRequired = apperr.New(apperr.KindValidation, "Refresh token is required.")
	// ErrSessionNotFound is returned when revocation matched no row.
	ErrSessionNotFound = apperr.New(apperr.KindNotFound, "Token not found or already revoked.")
	// ErrRefreshTokenRevoked is returned when a verified refresh token has no
	// matching row anymore.
	ErrRefreshTokenRevoked = apperr.New(apperr.KindTokenRejected, "Refresh token is no longer valid, please log in again.")
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = apperr.New(apperr.KindTokenRejected, "Session expired, please log in again.")
	// ErrTokenInvalid is returned for any other token that failed verification.
	ErrTokenInvalid = apperr.New(apperr.KindTokenRejected, "Invalid token.")
	// ErrServerMisconfigured is returned when a signing secret is absent.
	ErrServerMisconfigured = apperr.New(apperr.KindMisconfigured, "Server configuration error.")
)

// UserStore is the user persistence the service depends on.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	FindByUserName(ctx context.Context, userName string) (*domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
}

// SessionStore is the refresh-token persistence the service depends on.
type SessionStore interface {
	PersistRefresh(ctx context.Context, token string, userID uint, expiresAt time.Time) error
	Revoke(ctx context.Context, token string, userID uint) (int64, error)
}

// PasswordPolicy bounds password length in characters (runes). A zero MaxLength means no
// upper bound.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
}

// Check validates password against the policy.
func (p PasswordPolicy) Check(password string) error {
	n := utf8.RuneCountInString(password)
	if n < p.MinLength {
		return apperr.New(apperr.KindValidation, fmt.Sprintf("Password must be at least %d characters.", p.MinLength))
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return apperr.New(apperr.KindValidation, fmt.Sprintf("Password must be at most %d characters.", p.MaxLength))
	}
	return nil
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email    string
	Name     string
	UserName string
	Password string
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// LoginResult is what a successful login hands back.
type LoginResult struct {
	Tokens *TokenPair
	User   *domain.User
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithPasswordPolicy sets the password policy applied at registration.
func WithPasswordPolicy(policy PasswordPolicy) Option {
	return func(s *AuthService) {
		s.policy = policy
	}
}

// WithUniformLoginErrors makes an unknown username fail exactly like a wrong
// password.
func WithUniformLoginErrors(enabled bool) Option {
	return func(s *AuthService) {
		s.uniformLoginErrors = enabled
	}
}

// AuthService handles authentication business logic.
type AuthService struct {
	users              UserStore
	sessions           SessionStore
	hasher             *PasswordHasher
	jwt                *JWTManager
	policy             PasswordPolicy
	uniformLoginErrors bool
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, sessions SessionStore, hasher *PasswordHasher, jwt *JWTManager, opts ...Option) *AuthService {
	s := &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		jwt:      jwt,
		policy:   PasswordPolicy{MinLength: 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.UserName) == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return nil, ErrInvalidEmail
	}

	if err := s.policy.Check(in.Password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		Name:         in.Name,
		UserName:     in.UserName,
		PasswordHash: passwordHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user, issues a token pair and records the refresh
// token.
func (s *AuthService) Login(ctx context.Context, userName, password string) (*LoginResult, error) {
	user, err := s.users.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) && s.uniformLoginErrors {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password for user %d: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Tokens: tokens, User: user}, nil
}

// Logout revokes refreshToken for userID. Zero revoked rows is a failure.
func (s *AuthService) Logout(ctx context.Context, userID uint, refreshToken string) error {
	if refreshToken == "" {
		return ErrRefreshTokenRequired
	}

	n, err := s.sessions.Revoke(ctx, refreshToken, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Refresh exchanges a refresh token for a new pair. The presented token's
// row is revoked first, so each refresh token is usable once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, uint, error) {
	if refreshToken == "" {
		return nil, 0, ErrRefreshTokenRequired
	}

	userID, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, 0, tokenFailure(err)
	}

	n, err := s.sessions.Revoke(ctx, refreshToken, userID)
	if err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return nil, 0, ErrRefreshTokenRevoked
	}

	tokens, err := s.issue(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return tokens, userID, nil
}

// ValidateToken verifies an access token and returns the caller identity.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Identity, error) {
	userID, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, tokenFailure(err)
	}
	return &domain.Identity{ID: userID}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// issue signs a new pair and persists the refresh token with the same expiry
// it carries.
func (s *AuthService) issue(ctx context.Context, userID uint) (*TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return nil, tokenFailure(err)
	}

	refreshToken, expiresAt, err := s.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return nil, tokenFailure(err)
	}

	if err := s.sessions.PersistRefresh(ctx, refreshToken, userID, expiresAt); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// tokenFailure maps token manager errors onto client-facing failures.
func tokenFailure(err error) error {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return ErrTokenExpired
	case errors.Is(err, ErrMissingSecret):
		return ErrServerMisconfigured
	case errors.Is(err, ErrInvalidToken):
		return ErrTokenInvalid
	default:
		return fmt.Errorf("token operation failed: %w", err)
	}
}
