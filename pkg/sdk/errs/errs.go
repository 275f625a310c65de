// Package errs defines the error kinds surfaced by the lemon.markets SDK.
//
// Four kinds are kept apart so callers can branch on the category:
// transport failures, API-level failures (status "error" in the envelope),
// client-side validation failures and order lifecycle violations.
package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// TransportError reports that an HTTP exchange could not complete or that
// its body could not be decoded.
type TransportError struct {
	Op     string
	URL    string
	Status int // HTTP status code, 0 if no response was received

	cause error
}

// NewTransportError wraps cause as a transport failure of op against url.
func NewTransportError(op, url string, status int, cause error) *TransportError {
	return &TransportError{Op: op, URL: url, Status: status, cause: cause}
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("lemon: transport")
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.URL != "" {
		b.WriteString(" ")
		b.WriteString(e.URL)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (http %d)", e.Status)
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.cause }

// APIError is returned when the API answered with status "error".
// Code and Message are the server's error_code and error_message, verbatim.
type APIError struct {
	Code    string
	Message string
	Status  int
	Mode    string
	Time    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lemon: %s: %s", e.Code, e.Message)
}

// ValidationError reports a client-side precondition violation detected
// before any request was sent.
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "lemon: invalid argument: " + e.Reason
	}
	return fmt.Sprintf("lemon: invalid %s: %s", e.Field, e.Reason)
}

// OrderStatusError reports an operation that the order's current status forbids.
type OrderStatusError struct {
	Op     string
	Status string
}

func (e *OrderStatusError) Error() string {
	return fmt.Sprintf("lemon: cannot %s order in status %q", e.Op, e.Status)
}

// IsTransport reports whether err carries a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsAPI reports whether err carries an *APIError.
func IsAPI(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsOrderStatus reports whether err carries an *OrderStatusError.
func IsOrderStatus(err error) bool {
	var target *OrderStatusError
	return errors.As(err, &target)
}

// AsAPI extracts the *APIError from err, if any.
func AsAPI(err error) (*APIError, bool) {
	var target *APIError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
