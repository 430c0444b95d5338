package core

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a normalized SDK failure.
type ErrorCode string

const (
	// ErrCodeInvalidConfig is a synchronous pre-flight validation failure:
	// unknown provider, required field missing.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInitFailed means provider construction or async init threw.
	ErrCodeInitFailed ErrorCode = "INIT_FAILED"
	// ErrCodeProviderError means a live provider call or its destroy failed.
	ErrCodeProviderError ErrorCode = "PROVIDER_ERROR"
	// ErrCodeQueueOverflow is informational: an event was dropped due to
	// capacity, not a hard failure.
	ErrCodeQueueOverflow ErrorCode = "QUEUE_OVERFLOW"
	// ErrCodeNetworkError means an adapter's transport failed.
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"
)

// Error is the typed error object delivered on the host error channel.
// The facade never lets an internal failure escape as a panic or a
// returned error from a call site; every failure is normalized into one
// of these and routed through the configured ErrorHandler.
type Error struct {
	Code     ErrorCode
	Message  string
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("trackkit: %s (code=%s, provider=%s)", e.Message, e.Code, e.Provider)
	}
	return fmt.Sprintf("trackkit: %s (code=%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error for error chaining.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorHandler receives every normalized SDK failure. A nil handler
// discards errors. A panicking handler is recovered and ignored; host
// mistakes never propagate back into call sites.
type ErrorHandler func(*Error)

// Sentinel errors for classification with errors.Is.
var (
	ErrNotReady     = errors.New("provider not ready")
	ErrDestroyed    = errors.New("provider destroyed")
	ErrNetwork      = errors.New("network error")
	ErrNotSupported = errors.New("operation not supported")
)

func newError(code ErrorCode, provider, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Provider: provider, Err: err}
}
