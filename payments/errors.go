package payments

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies processor failures so callers never have to inspect
// message strings.
type ErrorCode string

const (
	// ErrCodeCapability marks account-capability/configuration failures, the
	// trigger for the Connect self-heal path.
	ErrCodeCapability     ErrorCode = "capability"
	ErrCodeNotFound       ErrorCode = "not_found"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeRateLimited    ErrorCode = "rate_limited"
	// ErrCodeUnavailable covers timeouts and 5xx responses: the outcome is
	// unknown, not necessarily failed.
	ErrCodeUnavailable ErrorCode = "unavailable"
	ErrCodeUnknown     ErrorCode = "unknown"
)

type Error struct {
	Op   string
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("payments: %s: %s (%s)", e.Op, e.Msg, e.Code)
	}
	return fmt.Sprintf("payments: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the classification from err, defaulting to unknown.
// Context deadline errors classify as unavailable even when unwrapped.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeUnavailable
	}
	return ErrCodeUnknown
}

// IsCapability reports whether err is an account-capability failure.
func IsCapability(err error) bool { return CodeOf(err) == ErrCodeCapability }

// IsUnavailable reports whether the outcome of the call is unknown (timeout,
// processor 5xx). Callers should re-query state before retrying.
func IsUnavailable(err error) bool { return CodeOf(err) == ErrCodeUnavailable }

func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }
