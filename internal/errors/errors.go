package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable classification for upstream and
// resolution failures.
type Code int

const (
	CodeInternal    Code = 1
	CodeUsage       Code = 2
	CodeAuth        Code = 10
	CodeRateLimited Code = 11
	// CodeUnavailable marks transient failures (network, timeout, 5xx).
	// These are the only failures the gateway retries.
	CodeUnavailable Code = 12
	// CodeRejected marks definitive upstream refusals (4xx, error envelopes).
	// Treated as "no data", never retried.
	CodeRejected Code = 13
	// CodeNoLiquidity means every probed route failed for a quote request.
	CodeNoLiquidity Code = 14
	// CodeStale is a soft signal: a refresh failed and a previous snapshot
	// was served instead. Never surfaced as a hard failure.
	CodeStale Code = 15
)

// Error is a typed error carrying a stable code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// untyped errors.
func CodeOf(err error) Code {
	if typed, ok := As(err); ok {
		return typed.Code
	}
	return CodeInternal
}

// Retryable reports whether the gateway may retry the failed attempt.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeUnavailable, CodeRateLimited:
		return true
	default:
		return false
	}
}
