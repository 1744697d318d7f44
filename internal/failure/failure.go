package failure

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies where a failure originated
type Kind string

const (
	Validation  Kind = "validation"
	Transport   Kind = "transport"
	Upstream    Kind = "upstream"
	Persistence Kind = "persistence"
	Proxy       Kind = "proxy"
)

// Error is the normalized failure descriptor returned by every component
// boundary: a human readable message plus the HTTP status when one exists.
type Error struct {
	Kind       Kind
	Message    string
	HTTPStatus int
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidation builds a failure for input rejected before any network call
func NewValidation(message string) *Error {
	return &Error{Kind: Validation, Message: message}
}

// NewTransport wraps a network-level error (unreachable host, timeout, reset)
func NewTransport(err error) *Error {
	return &Error{Kind: Transport, Message: err.Error(), Err: err}
}

// NewUpstream builds a failure for a non-2xx answer from the prediction service
func NewUpstream(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Kind: Upstream, Message: message, HTTPStatus: status}
}

// NewPersistence wraps an error from the local key-value store
func NewPersistence(err error) *Error {
	return &Error{Kind: Persistence, Message: err.Error(), Err: err}
}

// Is reports whether any error in err's chain is a failure of the given kind
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// Status returns the HTTP status carried by err, or 0
func Status(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.HTTPStatus
	}
	return 0
}
