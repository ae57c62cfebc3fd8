package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
// Business failures come back as *apperr.Error values.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*UserView, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, userID uint, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.Identity, error)
	GetUser(ctx context.Context, userID uint) (*UserView, error)
}

// ServicePort implements AuthPort directly on an AuthService. The module's
// request-reply handlers are built on it.
type ServicePort struct {
	service *AuthService
}

var _ AuthPort = (*ServicePort)(nil)

// NewServicePort creates a new ServicePort.
func NewServicePort(service *AuthService) *ServicePort {
	return &ServicePort{service: service}
}

func (p *ServicePort) Register(ctx context.Context, req RegisterRequest) (*UserView, error) {
	user, err := p.service.Register(ctx, RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return NewUserView(user), nil
}

func (p *ServicePort) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	result, err := p.service.Login(ctx, req.UserName, req.Password)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken:      result.Tokens.AccessToken,
		RefreshToken:     result.Tokens.RefreshToken,
		RefreshExpiresAt: result.Tokens.RefreshExpiresAt,
		User:             NewUserView(result.User),
	}, nil
}

func (p *ServicePort) Logout(ctx context.Context, userID uint, refreshToken string) error {
	return p.service.Logout(ctx, userID, refreshToken)
}

func (p *ServicePort) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	tokens, userID, err := p.service.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{
		AccessToken:      tokens.AccessToken,
		RefreshToken:     tokens.RefreshToken,
		RefreshExpiresAt: tokens.RefreshExpiresAt,
		UserID:           userID,
	}, nil
}

func (p *ServicePort) ValidateToken(ctx context.Context, token string) (*domain.Identity, error) {
	return p.service.ValidateToken(ctx, token)
}

func (p *ServicePort) GetUser(ctx context.Context, userID uint) (*UserView, error) {
	user, err := p.service.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewUserView(user), nil
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// call performs a request-reply round trip. Transport errors are wrapped;
// business failures are left in resp for the caller to surface.
func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// Register creates a user account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*UserView, error) {
	var resp RegisterResponse
	if err := call(ctx, a.container, ServiceRegister, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Failure != nil {
		return nil, resp.Failure
	}
	return resp.User, nil
}

// Login authenticates a user and returns tokens.
func (a *AuthAdapter) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := call(ctx, a.container, ServiceLogin, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Failure != nil {
		return nil, resp.Failure
	}
	return &resp, nil
}

// Logout revokes a refresh token held by userID.
func (a *AuthAdapter) Logout(ctx context.Context, userID uint, refreshToken string) error {
	req := LogoutRequest{UserID: userID, RefreshToken: refreshToken}
	var resp LogoutResponse
	if err := call(ctx, a.container, ServiceLogout, &req, &resp); err != nil {
		return err
	}
	if resp.Failure != nil {
		return resp.Failure
	}
	return nil
}

// Refresh rotates a refresh token.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp RefreshResponse
	if err := call(ctx, a.container, ServiceRefreshToken, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Failure != nil {
		return nil, resp.Failure
	}
	return &resp, nil
}

// ValidateToken validates an access token and returns the caller identity.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Identity, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := call(ctx, a.container, ServiceValidateToken, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Failure != nil {
		return nil, resp.Failure
	}
	return &domain.Identity{ID: resp.UserID}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID uint) (*UserView, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := call(ctx, a.container, ServiceGetUser, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Failure != nil {
		return nil, resp.Failure
	}
	if resp.User == nil {
		return nil, apperr.New(apperr.KindInternal, "get-user returned no user")
	}
	return resp.User, nil
}
