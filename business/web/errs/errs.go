// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"time"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error      string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
	RetryAfter int               `json:"retryAfter,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err        error
	Status     int
	RetryAfter time.Duration
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{Err: err, Status: status}
}

// NewRetryable wraps a provided error with an HTTP status code and the
// amount of time the client should wait before trying again.
func NewRetryable(err error, status int, retryAfter time.Duration) error {
	return &Trusted{Err: err, Status: status, RetryAfter: retryAfter}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap provides access to the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// RetryAfterSeconds returns the retry delay rounded up to whole seconds.
func (te *Trusted) RetryAfterSeconds() int {
	if te.RetryAfter <= 0 {
		return 0
	}
	return int((te.RetryAfter + time.Second - 1) / time.Second)
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}
