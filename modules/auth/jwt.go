package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrMissingSecret is returned when a signing secret is not configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")
)

// JWTConfig holds JWT configuration. Access and refresh tokens are signed
// with independent secrets.
type JWTConfig struct {
	AccessSecret         string
	RefreshSecret        string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	Issuer               string
}

// JWTClaims represents the claims embedded in every token. The user id is the
// only identity data a token carries.
type JWTClaims struct {
	UserID *uint `json:"id"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies access and refresh tokens.
type JWTManager struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTManager creates a new JWTManager. Both secrets are required.
func NewJWTManager(config JWTConfig) (*JWTManager, error) {
	if config.AccessSecret == "" || config.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}
	return &JWTManager{
		config: config,
		now:    time.Now,
	}, nil
}

// GenerateAccessToken signs a short-lived access token for userID.
func (m *JWTManager) GenerateAccessToken(userID uint) (string, error) {
	token, _, err := m.generateToken(userID, m.config.AccessSecret, m.config.AccessTokenDuration)
	return token, err
}

// GenerateRefreshToken signs a refresh token for userID and returns its expiry.
func (m *JWTManager) GenerateRefreshToken(userID uint) (string, time.Time, error) {
	return m.generateToken(userID, m.config.RefreshSecret, m.config.RefreshTokenDuration)
}

// generateToken creates a new JWT token with the specified parameters.
func (m *JWTManager) generateToken(userID uint, secret string, duration time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, ErrMissingSecret
	}

	now := m.now()
	expiresAt := now.Add(duration)
	id := userID
	claims := JWTClaims{
		UserID: &id,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies an access token and returns its user id.
func (m *JWTManager) ValidateAccessToken(tokenString string) (uint, error) {
	return m.validate(tokenString, m.config.AccessSecret)
}

// ValidateRefreshToken verifies a refresh token and returns its user id.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (uint, error) {
	return m.validate(tokenString, m.config.RefreshSecret)
}

// validate checks signature, expiry and payload shape. A payload without a
// positive integer id is rejected even when the signature is valid.
func (m *JWTManager) validate(tokenString, secret string) (uint, error) {
	if secret == "" {
		return 0, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}

	var claims JWTClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}

	if !token.Valid || claims.UserID == nil || *claims.UserID == 0 {
		return 0, ErrInvalidToken
	}

	return *claims.UserID, nil
}

// AccessTokenDuration returns the access token duration in seconds.
func (m *JWTManager) AccessTokenDuration() int64 {
	return int64(m.config.AccessTokenDuration.Seconds())
}
