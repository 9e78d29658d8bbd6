package contracts

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider failure
// ⭐ SSOT: the fetch error taxonomy is defined only here
type ErrorKind string

const (
	// KindInvalidInput marks a bad symbol/period/criteria, rejected before
	// any network call. Never retried.
	KindInvalidInput ErrorKind = "invalid_input"

	// KindAuthError marks a missing or rejected credential. Triggers
	// fallback, never retried on the same provider.
	KindAuthError ErrorKind = "auth_error"

	// KindRateLimited marks a quota or pacing signal, either from the
	// provider or from our own limiter. Triggers fallback immediately.
	KindRateLimited ErrorKind = "rate_limited"

	// KindUnavailable marks a network error, timeout or 5xx. Retried with
	// backoff, then triggers fallback.
	KindUnavailable ErrorKind = "unavailable"

	// KindBadResponse marks a malformed or unexpected payload. Retried,
	// then triggers fallback.
	KindBadResponse ErrorKind = "bad_response"

	// KindNotFound marks a symbol unknown to this provider. Not retried,
	// but the next provider is still tried.
	KindNotFound ErrorKind = "not_found"
)

// FetchError is a typed provider failure
type FetchError struct {
	Provider string
	Kind     ErrorKind
	Message  string
	Err      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Provider, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the wrapped error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient. Only Unavailable and
// BadResponse may be retried on the same provider.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindUnavailable || e.Kind == KindBadResponse
}

// NewFetchError creates a FetchError without a cause
func NewFetchError(provider string, kind ErrorKind, message string) *FetchError {
	return &FetchError{Provider: provider, Kind: kind, Message: message}
}

// WrapFetchError creates a FetchError wrapping a cause
func WrapFetchError(provider string, kind ErrorKind, message string, err error) *FetchError {
	return &FetchError{Provider: provider, Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from err, or KindUnavailable when err is
// not a FetchError (an unclassified failure is treated as transient).
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnavailable
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
