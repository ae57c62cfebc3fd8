package api

import (
	"github.com/example/forum28/domain/apperr"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var (
	errInvalidBody      = apperr.New(apperr.KindValidation, "Invalid request body.")
	errInvalidPostID    = apperr.New(apperr.KindValidation, "Invalid post ID.")
	errInvalidCommentID = apperr.New(apperr.KindValidation, "Invalid comment ID.")
	errNotLoggedIn      = apperr.New(apperr.KindUnauthenticated, "You must log in to access this resource.")
	errNoIdentity       = apperr.New(apperr.KindUnauthenticated, "Authorization error.")
)

// statusOverrides adjusts the default status of a kind for one endpoint.
type statusOverrides map[apperr.Kind]int

// StatusFor returns the default HTTP status for a failure kind.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return fiber.StatusBadRequest
	case apperr.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case apperr.KindTokenRejected, apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindStoreUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as an ErrorResponse. Uncategorized and internal
// errors are logged and replaced by a generic body.
func writeError(c *fiber.Ctx, logger *logrus.Entry, err error, overrides statusOverrides) error {
	f, ok := apperr.AsFailure(err)
	if !ok || f.Kind == apperr.KindInternal {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: apperr.ErrInternal.Message,
			Code:  string(apperr.KindInternal),
		})
	}

	status := StatusFor(f.Kind)
	if o, ok := overrides[f.Kind]; ok {
		status = o
	}
	return c.Status(status).JSON(ErrorResponse{
		Error: f.Message,
		Code:  string(f.Kind),
	})
}

// newErrorHandler handles errors that escape route handlers, such as
// unmatched routes.
func newErrorHandler(logger *logrus.Entry) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		e, ok := err.(*fiber.Error)
		if !ok {
			return writeError(c, logger, err, nil)
		}

		kind := apperr.KindInternal
		switch {
		case e.Code == fiber.StatusNotFound:
			kind = apperr.KindNotFound
		case e.Code < fiber.StatusInternalServerError:
			kind = apperr.KindValidation
		}
		return c.Status(e.Code).JSON(ErrorResponse{
			Error: e.Message,
			Code:  string(kind),
		})
	}
}
