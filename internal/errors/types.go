package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// The assistant distinguishes three user-visible failure classes. Validation
// errors name the offending field, external errors wrap a backend failure
// without leaking its shape into the reply, and approval errors report a
// guarded action blocked by the gate. Anything else is recovered locally.

// ValidationError reports a missing or invalid tool argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing required field: %s", e.Field)
	}
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a missing required field.
func NewValidation(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// NewValidationReason builds a ValidationError with an explanation.
func NewValidationReason(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExternalError wraps a failure from an external capability (tool backend or
// planning service). The user-facing message is deliberately generic.
type ExternalError struct {
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// NewExternal wraps err as an external capability failure.
func NewExternal(service string, err error) *ExternalError {
	return &ExternalError{Service: service, Err: err}
}

// IsExternal reports whether err originated in an external capability.
func IsExternal(err error) bool {
	var ee *ExternalError
	return errors.As(err, &ee)
}

// UnavailableError signals a backend shut off by the circuit breaker.
type UnavailableError struct {
	Service string
	Hint    string
}

func (e *UnavailableError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("service %s is temporarily unavailable", e.Service)
	}
	return fmt.Sprintf("service %s is temporarily unavailable: %s", e.Service, e.Hint)
}

// NewUnavailable builds an UnavailableError.
func NewUnavailable(service, hint string) *UnavailableError {
	return &UnavailableError{Service: service, Hint: hint}
}

// IsTransient reports whether err is worth retrying: network hiccups,
// timeouts, and throttling responses. Validation and approval failures are
// deterministic and never retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsValidation(err) {
		return false
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"temporary failure",
		"timeout",
		"status 429",
		"status 500",
		"status 502",
		"status 503",
		"status 504",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
