package domain

import (
	"errors"
	"fmt"
)

// Kind identifies one member of the closed error taxonomy. Errors of a known
// kind pass through every call layer unchanged; anything else crossing a
// component boundary is wrapped into KindRequest or KindUnknown.
type Kind string

const (
	// KindValidation rejects malformed input before any network call.
	KindValidation Kind = "VALIDATION"
	// KindAuthentication covers missing or invalid credentials and 401
	// responses; raising it invalidates the cached token.
	KindAuthentication Kind = "AUTHENTICATION"
	// KindAPI covers project-lookup failures and similar upstream refusals.
	KindAPI Kind = "API"
	// KindRequest wraps generic network or HTTP failures not otherwise
	// classified.
	KindRequest Kind = "REQUEST"
	// KindGeneration reports an explicit job error from upstream.
	KindGeneration Kind = "GENERATION"
	// KindPolling reports an exhausted attempt budget without resolution.
	KindPolling Kind = "POLLING"
	// KindUnexpectedResponse reports a response shape matching none of the
	// recognized variants.
	KindUnexpectedResponse Kind = "UNEXPECTED_RESPONSE"
	// KindUnknown is the fallback for everything else.
	KindUnknown Kind = "UNKNOWN"
)

// Error is the structured error carried across every boundary of the client.
type Error struct {
	Kind       Kind   // taxonomy member
	Message    string // human-readable description
	StatusCode int    // upstream HTTP status, 0 when not applicable
	Op         string // originating operation, for diagnostics
	RawBody    string // offending response body, set for unexpected shapes
	Cause      error  // wrapped lower-level error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Message)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error with the given kind and message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithStatus records the upstream HTTP status.
func (e *Error) WithStatus(status int) *Error {
	e.StatusCode = status
	return e
}

// WithOp records the originating operation name.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithCause records the wrapped lower-level error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRawBody records the response body that failed to match any shape.
func (e *Error) WithRawBody(body []byte) *Error {
	e.RawBody = string(body)
	return e
}

// IsKind reports whether err is, or wraps, a taxonomy error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// EnsureKnown passes taxonomy errors through unchanged and wraps anything
// else into KindRequest with the operation name attached. This is the one
// sanctioned way to cross a component boundary with a foreign error.
func EnsureKnown(err error, op string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return NewError(KindRequest, err.Error()).WithOp(op).WithCause(err)
}
