package api

import (
	"errors"
	"strings"

	"github.com/example/forum28/domain/apperr"
	domain "github.com/example/forum28/domain/user"
	"github.com/example/forum28/metrics"
	"github.com/example/forum28/modules/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	// IdentityContextKey is the key used to store the caller identity in the
	// Fiber context.
	IdentityContextKey = "identity"
)

// AuthGate creates a middleware that admits only requests carrying a valid
// access token. The verified identity is stored in c.Locals and in the
// request's user context.
func AuthGate(authPort auth.AuthPort, logger *logrus.Entry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			metrics.RecordTokenRejection("missing")
			return writeError(c, logger, errNotLoggedIn, nil)
		}

		identity, err := authPort.ValidateToken(c.UserContext(), token)
		if err != nil {
			metrics.RecordTokenRejection(rejectionReason(err))
			return writeError(c, logger, err, nil)
		}

		c.Locals(IdentityContextKey, identity)
		c.SetUserContext(auth.WithIdentity(c.UserContext(), identity))

		return c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrServerMisconfigured):
		return "misconfigured"
	case apperr.KindOf(err) == apperr.KindTokenRejected:
		return "invalid"
	default:
		return "error"
	}
}

// identityFrom returns the identity stored by AuthGate.
func identityFrom(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(IdentityContextKey).(*domain.Identity)
	return identity, ok && identity != nil
}
