package api

import (
	"context"
	"fmt"
	"io"

	"github.com/example/forum28/config"
	"github.com/example/forum28/logging"
	"github.com/example/forum28/metrics"
	"github.com/example/forum28/modules/auth"
	"github.com/example/forum28/modules/forum"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// APIModule is the HTTP API module.
type APIModule struct {
	cfg       *config.Config
	logger    *logrus.Entry
	app       *fiber.App
	accessLog *io.PipeWriter
	authPort  auth.AuthPort
	forumPort forum.ForumPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(cfg *config.Config, logger *logrus.Logger) *APIModule {
	return &APIModule{
		cfg:    cfg,
		logger: logging.ForModule(logger, "api"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "forum"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	case "forum":
		m.forumPort = forum.NewForumAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authPort == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.forumPort == nil {
		return fmt.Errorf("forum dependency not set")
	}

	m.accessLog = m.logger.WriterLevel(logrus.InfoLevel)
	m.app = NewApp(m.authPort, m.forumPort, m.logger, m.accessLog)

	addr := m.cfg.Addr()
	go func() {
		if err := m.app.Listen(addr); err != nil {
			m.logger.WithError(err).Error("HTTP server error")
		}
	}()

	m.logger.WithField("addr", addr).Info("HTTP server started")
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("shutting down HTTP server")
	err := m.app.Shutdown()
	if m.accessLog != nil {
		_ = m.accessLog.Close()
	}
	return err
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.cfg.Port,
		},
	}
}

// NewApp builds the Fiber application with every route mounted. Access log
// lines go to accessLog.
func NewApp(authPort auth.AuthPort, forumPort forum.ForumPort, log *logrus.Entry, accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${status} - ${latency} ${method} ${path}\n",
		Output: accessLog,
	}))
	app.Use(cors.New())
	app.Use(metrics.Middleware())

	setupRoutes(app, NewHandlers(authPort, forumPort, log), AuthGate(authPort, log))
	return app
}

// setupRoutes configures all API routes.
func setupRoutes(app *fiber.App, h *Handlers, gate fiber.Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})
	app.Get("/metrics", metrics.Handler())

	// Public auth routes
	app.Post("/users", h.Register)
	app.Post("/login", h.Login)
	app.Post("/refresh", h.Refresh)

	// Protected auth routes
	app.Post("/logout", gate, h.Logout)
	app.Get("/homepage", gate, h.Homepage)

	// Posts and comments; reads are public
	app.Get("/posts", h.ListPosts)
	app.Post("/posts", gate, h.CreatePost)
	app.Delete("/posts/:id", gate, h.DeletePost)
	app.Get("/posts/:postId/comments", h.ListComments)
	app.Post("/posts/:postId/comments", gate, h.CreateComment)
	app.Delete("/comments/:commentId", gate, h.DeleteComment)
}
