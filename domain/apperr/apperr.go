// Package apperr defines the categorized failures shared by every module.
//
// A failure carries a Kind that the HTTP layer maps to a status code and a
// Message that is safe to show to clients. Anything that is not an *Error is
// treated as an unexpected internal failure.
package apperr

import "errors"

// Kind categorizes a failure.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindUnauthenticated  Kind = "unauthenticated"
	KindTokenRejected    Kind = "token_rejected"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindMisconfigured    Kind = "misconfigured"
	KindStoreUnavailable Kind = "store_unavailable"
	KindInternal         Kind = "internal"
)

// ErrInternal is the client-facing stand-in for any uncategorized failure.
var ErrInternal = New(KindInternal, "Internal server error")

// Error is a categorized, client-safe failure.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// New creates a new Error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error with the same kind and message.
// Errors rebuilt from a service response compare equal to the sentinel they
// were produced from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// AsFailure extracts the *Error in err's chain, if any.
func AsFailure(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for uncategorized errors.
func KindOf(err error) Kind {
	if e, ok := AsFailure(err); ok {
		return e.Kind
	}
	return KindInternal
}
