package core

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why a reply could not be generated
type FailureKind string

const (
	// KindValidation covers bad input detected locally
	KindValidation FailureKind = "validation"
	// KindConfiguration covers a missing or rejected credential and missing clients
	KindConfiguration FailureKind = "configuration"
	// KindTransport covers unreachable services, timeouts and malformed responses
	KindTransport FailureKind = "transport"
	// KindService covers error statuses returned by the remote service
	KindService FailureKind = "service"
)

var (
	ErrEmptyEmail        = errors.New("email content is empty")
	ErrUnknownTone       = errors.New("unknown tone")
	ErrMissingCredential = errors.New("API credential is not set")
	ErrNoClient          = errors.New("no LLM client configured")
	ErrEmptyCompletion   = errors.New("model returned an empty completion")
	ErrMalformedResponse = errors.New("malformed response")
)

// ReplyError is an error tagged with its failure kind
type ReplyError struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (e *ReplyError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ReplyError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation failure
func NewValidationError(reason string, err error) *ReplyError {
	return &ReplyError{Kind: KindValidation, Reason: reason, Err: err}
}

// NewConfigurationError creates a configuration failure
func NewConfigurationError(reason string, err error) *ReplyError {
	return &ReplyError{Kind: KindConfiguration, Reason: reason, Err: err}
}

// NewTransportError creates a transport failure
func NewTransportError(reason string, err error) *ReplyError {
	return &ReplyError{Kind: KindTransport, Reason: reason, Err: err}
}

// NewServiceError creates a service failure
func NewServiceError(reason string, err error) *ReplyError {
	return &ReplyError{Kind: KindService, Reason: reason, Err: err}
}

// KindOf returns the failure kind carried by err.
// Deadlines, cancellations and unclassified errors count as transport failures.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var re *ReplyError
	if errors.As(err, &re) && re.Kind != "" {
		return re.Kind
	}
	return KindTransport
}

// isTimeout reports whether err came from the request deadline or a cancellation
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
