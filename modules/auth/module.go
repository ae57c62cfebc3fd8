package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/forum28/config"
	"github.com/example/forum28/database"
	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/user"
	"github.com/example/forum28/events"
	"github.com/example/forum28/logging"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Request-reply service names exposed by the auth module.
const (
	ServiceRegister      = "register"
	ServiceLogin         = "login"
	ServiceLogout        = "logout"
	ServiceRefreshToken  = "refresh-token"
	ServiceValidateToken = "validate-token"
	ServiceGetUser       = "get-user"
)

// AuthModule provides authentication services.
type AuthModule struct {
	cfg      *config.Config
	logger   *logrus.Entry
	db       *gorm.DB
	port     *ServicePort
	eventBus mono.EventBus
	hasher   *PasswordHasher
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.EventEmitterModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(cfg *config.Config, logger *logrus.Logger) *AuthModule {
	return &AuthModule{
		cfg:    cfg,
		logger: logging.ForModule(logger, "auth"),
		hasher: NewPasswordHasher(),
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetEventBus is called by the framework before Start.
func (m *AuthModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *AuthModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserRegisteredV1.ToBase(),
		events.UserLoggedInV1.ToBase(),
		events.UserLoggedOutV1.ToBase(),
		events.SessionRefreshedV1.ToBase(),
	}
}

// Start opens the store and builds the service. A missing signing secret
// fails startup.
func (m *AuthModule) Start(_ context.Context) error {
	jwtManager, err := NewJWTManager(JWTConfig{
		AccessSecret:         m.cfg.Auth.AccessSecret,
		RefreshSecret:        m.cfg.Auth.RefreshSecret,
		AccessTokenDuration:  m.cfg.Auth.AccessTTL,
		RefreshTokenDuration: m.cfg.Auth.RefreshTTL,
		Issuer:               m.cfg.Auth.Issuer,
	})
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	db, err := database.Open(m.cfg.Database)
	if err != nil {
		return err
	}
	m.db = db

	// Token references User, so users go first.
	if err := db.AutoMigrate(&domain.User{}, &domain.Token{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	timeout := m.cfg.Database.StoreTimeout
	service := NewAuthService(
		NewUserRepository(db, timeout),
		NewRefreshTokenRepository(db, timeout),
		m.hasher,
		jwtManager,
		WithPasswordPolicy(PasswordPolicy{
			MinLength: m.cfg.Auth.PasswordMinLength,
			MaxLength: m.cfg.Auth.PasswordMaxLength,
		}),
		WithUniformLoginErrors(m.cfg.Auth.UniformLoginErrors),
	)
	m.port = NewServicePort(service)

	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, events will not be published")
	}

	m.logger.WithFields(logrus.Fields{
		"driver":      m.cfg.Database.Driver,
		"access_ttl":  m.cfg.Auth.AccessTTL.String(),
		"refresh_ttl": m.cfg.Auth.RefreshTTL.String(),
	}).Info("module started")
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		m.logger.WithError(err).Warn("failed to close database")
	}
	m.logger.Info("module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.cfg.Database.Driver,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRegister, json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRegister, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogout, json.Unmarshal, json.Marshal, m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogout, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRefreshToken, json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRefreshToken, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceValidateToken, json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceValidateToken, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	m.logger.Info("registered services: register, login, logout, refresh-token, validate-token, get-user")
	return nil
}

// handleRegister handles user registration.
func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, err := m.port.Register(ctx, req)
	if err != nil {
		return RegisterResponse{Failure: m.failure(ServiceRegister, err)}, nil
	}

	m.publish(ServiceRegister, func(bus mono.EventBus) error {
		return events.UserRegisteredV1.Publish(bus, events.UserRegisteredEvent{
			UserID:       user.ID,
			UserName:     user.UserName,
			RegisteredAt: user.CreatedAt,
		}, nil)
	})

	return RegisterResponse{User: user}, nil
}

// handleLogin handles user login.
func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	resp, err := m.port.Login(ctx, req)
	if err != nil {
		return LoginResponse{Failure: m.failure(ServiceLogin, err)}, nil
	}

	m.publish(ServiceLogin, func(bus mono.EventBus) error {
		return events.UserLoggedInV1.Publish(bus, events.UserLoggedInEvent{
			UserID:     resp.User.ID,
			LoggedInAt: time.Now().UTC(),
		}, nil)
	})

	return *resp, nil
}

// handleLogout handles refresh-token revocation.
func (m *AuthModule) handleLogout(ctx context.Context, req LogoutRequest, _ *mono.Msg) (LogoutResponse, error) {
	if err := m.port.Logout(ctx, req.UserID, req.RefreshToken); err != nil {
		return LogoutResponse{Failure: m.failure(ServiceLogout, err)}, nil
	}

	m.publish(ServiceLogout, func(bus mono.EventBus) error {
		return events.UserLoggedOutV1.Publish(bus, events.UserLoggedOutEvent{
			UserID:      req.UserID,
			LoggedOutAt: time.Now().UTC(),
		}, nil)
	})

	return LogoutResponse{}, nil
}

// handleRefresh handles token rotation.
func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (RefreshResponse, error) {
	resp, err := m.port.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return RefreshResponse{Failure: m.failure(ServiceRefreshToken, err)}, nil
	}

	m.publish(ServiceRefreshToken, func(bus mono.EventBus) error {
		return events.SessionRefreshedV1.Publish(bus, events.SessionRefreshedEvent{
			UserID:      resp.UserID,
			RefreshedAt: time.Now().UTC(),
		}, nil)
	})

	return *resp, nil
}

// handleValidateToken handles token validation.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	identity, err := m.port.ValidateToken(ctx, req.Token)
	if err != nil {
		return ValidateTokenResponse{Failure: m.failure(ServiceValidateToken, err)}, nil
	}
	return ValidateTokenResponse{UserID: identity.ID}, nil
}

// handleGetUser handles get user requests.
func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.port.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{Failure: m.failure(ServiceGetUser, err)}, nil
	}
	return GetUserResponse{User: user}, nil
}

// failure turns err into the categorized failure carried in a response.
// Uncategorized errors are logged here and replaced by ErrInternal so no
// internal detail crosses the module boundary.
func (m *AuthModule) failure(service string, err error) *apperr.Error {
	f, ok := apperr.AsFailure(err)
	if !ok {
		m.logger.WithError(err).WithField("service", service).Error("request failed")
		return apperr.ErrInternal
	}
	if f.Kind == apperr.KindStoreUnavailable {
		m.logger.WithError(err).WithField("service", service).Warn("store unavailable")
	}
	return f
}

// publish emits an event best-effort; a failure is logged and swallowed.
func (m *AuthModule) publish(service string, emit func(mono.EventBus) error) {
	if m.eventBus == nil {
		return
	}
	if err := emit(m.eventBus); err != nil {
		m.logger.WithError(err).WithField("service", service).Warn("failed to publish event")
	}
}
