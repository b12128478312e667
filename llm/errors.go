package llm

import (
	"errors"
)

// Error types for classifying estimator failures.

// UpstreamError represents a failed call to the model API: network errors,
// timeouts, and non-2xx statuses. Callers are expected to absorb these and
// degrade rather than surface them to end users.
type UpstreamError struct {
	// StatusCode is the HTTP status from the upstream, or 0 for
	// network-level failures and timeouts.
	StatusCode int

	err error
}

func (e *UpstreamError) Error() string {
	return e.err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.err
}

// NewUpstreamError wraps an error as an upstream failure.
func NewUpstreamError(statusCode int, err error) error {
	return &UpstreamError{StatusCode: statusCode, err: err}
}

// MalformedResponseError represents a 2xx reply whose body the provider
// adapter could not parse into a completion.
type MalformedResponseError struct {
	err error
}

func (e *MalformedResponseError) Error() string {
	return e.err.Error()
}

func (e *MalformedResponseError) Unwrap() error {
	return e.err
}

// NewMalformedResponseError wraps an error as a malformed-response failure.
func NewMalformedResponseError(err error) error {
	return &MalformedResponseError{err: err}
}

// IsUpstream returns true if the error came from the upstream call itself.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsMalformed returns true if the upstream replied but the reply was unusable.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}
