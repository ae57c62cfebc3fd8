// Package audit records the auth lifecycle: every event becomes a structured
// log line and a Prometheus counter increment.
package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/forum28/events"
	"github.com/example/forum28/logging"
	"github.com/example/forum28/metrics"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/sirupsen/logrus"
)

// Event labels used in logs and metrics.
const (
	EventRegistered = "registered"
	EventLoggedIn   = "logged_in"
	EventLoggedOut  = "logged_out"
	EventRefreshed  = "refreshed"
)

// AuditModule consumes auth events.
type AuditModule struct {
	logger *logrus.Entry

	mu     sync.RWMutex
	counts map[string]int
}

var _ mono.Module = (*AuditModule)(nil)
var _ mono.EventConsumerModule = (*AuditModule)(nil)
var _ mono.HealthCheckableModule = (*AuditModule)(nil)

func NewModule(logger *logrus.Logger) *AuditModule {
	return &AuditModule{
		logger: logging.ForModule(logger, "audit"),
		counts: make(map[string]int),
	}
}

func (m *AuditModule) Name() string {
	return "audit"
}

func (m *AuditModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.UserRegisteredV1, m.handleUserRegistered, m); err != nil {
		return fmt.Errorf("failed to register UserRegistered consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserLoggedInV1, m.handleUserLoggedIn, m); err != nil {
		return fmt.Errorf("failed to register UserLoggedIn consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserLoggedOutV1, m.handleUserLoggedOut, m); err != nil {
		return fmt.Errorf("failed to register UserLoggedOut consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.SessionRefreshedV1, m.handleSessionRefreshed, m); err != nil {
		return fmt.Errorf("failed to register SessionRefreshed consumer: %w", err)
	}

	m.logger.Info("registered event consumers: UserRegistered, UserLoggedIn, UserLoggedOut, SessionRefreshed")
	return nil
}

func (m *AuditModule) handleUserRegistered(_ context.Context, event events.UserRegisteredEvent, _ *mono.Msg) error {
	m.record(EventRegistered, logrus.Fields{
		"user_id":   event.UserID,
		"user_name": event.UserName,
		"at":        event.RegisteredAt,
	})
	return nil
}

func (m *AuditModule) handleUserLoggedIn(_ context.Context, event events.UserLoggedInEvent, _ *mono.Msg) error {
	m.record(EventLoggedIn, logrus.Fields{"user_id": event.UserID, "at": event.LoggedInAt})
	return nil
}

func (m *AuditModule) handleUserLoggedOut(_ context.Context, event events.UserLoggedOutEvent, _ *mono.Msg) error {
	m.record(EventLoggedOut, logrus.Fields{"user_id": event.UserID, "at": event.LoggedOutAt})
	return nil
}

func (m *AuditModule) handleSessionRefreshed(_ context.Context, event events.SessionRefreshedEvent, _ *mono.Msg) error {
	m.record(EventRefreshed, logrus.Fields{"user_id": event.UserID, "at": event.RefreshedAt})
	return nil
}

func (m *AuditModule) record(event string, fields logrus.Fields) {
	m.mu.Lock()
	m.counts[event]++
	m.mu.Unlock()

	metrics.RecordAuthEvent(event)
	m.logger.WithFields(fields).WithField("event", event).Info("auth event")
}

// Counts returns how many events of each kind were seen since start.
func (m *AuditModule) Counts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

func (m *AuditModule) Start(_ context.Context) error {
	m.logger.Info("module started")
	return nil
}

func (m *AuditModule) Stop(_ context.Context) error {
	m.logger.WithField("counts", m.Counts()).Info("module stopped")
	return nil
}

func (m *AuditModule) Health(_ context.Context) mono.HealthStatus {
	details := make(map[string]any)
	for k, v := range m.Counts() {
		details[k] = v
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
