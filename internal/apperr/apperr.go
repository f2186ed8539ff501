// Package apperr defines the error kinds surfaced by the mood engine.
// Every error carries a technical message for logs and, where relevant,
// a localized message meant for the person typing.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error. Callers branch on Kind, never on type names.
type Kind int

const (
	Unexpected Kind = iota
	Network
	HTTPStatus
	SchemaValidation
	StorageQuota
	ImportValidation
	NotInitialized
	InvalidInput
	Busy
)

// String returns a stable name used in logs and API payloads.
func (k Kind) String() string {
	switch k {
	case Unexpected:
		return "unexpected"
	case Network:
		return "network"
	case HTTPStatus:
		return "http_status"
	case SchemaValidation:
		return "schema_validation"
	case StorageQuota:
		return "storage_quota"
	case ImportValidation:
		return "import_validation"
	case NotInitialized:
		return "not_initialized"
	case InvalidInput:
		return "invalid_input"
	case Busy:
		return "busy"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error is the classified error type.
type Error struct {
	Kind        Kind
	StatusCode  int      // upstream HTTP status, 0 when not an HTTP failure
	Message     string   // technical description
	UserMessage string   // localized, may be empty
	Fields      []string // violated fields for SchemaValidation
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.Kind.String())
	b.WriteString("]")
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " HTTP %d:", e.StatusCode)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (fields: %s)", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, message, userMessage string) *Error {
	return &Error{Kind: kind, Message: message, UserMessage: userMessage}
}

// Wrap builds an error of the given kind around err.
func Wrap(kind Kind, err error, message, userMessage string) *Error {
	return &Error{Kind: kind, Message: message, UserMessage: userMessage, Err: err}
}

// NewHTTPError records a non-success upstream status.
func NewHTTPError(statusCode int, message, userMessage string) *Error {
	return &Error{Kind: HTTPStatus, StatusCode: statusCode, Message: message, UserMessage: userMessage}
}

// NewNetworkError records a request that never got a response.
func NewNetworkError(operation string, err error, userMessage string) *Error {
	return &Error{
		Kind:        Network,
		Message:     operation + " network error",
		UserMessage: userMessage,
		Err:         err,
	}
}

// NewValidationError records a payload that failed schema checks.
func NewValidationError(fields []string, message, userMessage string) *Error {
	return &Error{Kind: SchemaValidation, Message: message, UserMessage: userMessage, Fields: fields}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or Unexpected for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Unexpected
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	if e, ok := As(err); ok {
		return e.StatusCode
	}
	return 0
}

// UserMessage returns the localized message carried by err, falling back
// to fallback when none is set.
func UserMessage(err error, fallback string) string {
	if e, ok := As(err); ok && e.UserMessage != "" {
		return e.UserMessage
	}
	return fallback
}
