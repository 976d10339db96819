package httpclient

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/resilience"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindTimeout is a request that ran out of time.
	KindTimeout Kind = iota
	// KindConnection is a transport failure (refused, DNS, reset).
	KindConnection
	// KindStatus is a response with a non-2xx status.
	KindStatus
	// KindEncoding is a request or response body that could not be (de)serialized.
	KindEncoding
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindStatus:
		return "status"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Error is a failed request.
type Error struct {
	Kind       Kind
	Service    string
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Retryable  bool
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("httpclient: %s %s %s: HTTP %d", e.Service, e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("httpclient: %s %s %s: %s: %v", e.Service, e.Method, e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// AppError converts the failure into the shared error vocabulary.
func (e *Error) AppError() *errors.AppError {
	switch {
	case e.Kind == KindTimeout:
		return errors.Timeout(e.Service).WithCause(e)
	case e.Kind == KindEncoding:
		return errors.InvalidInput("body", e.Err.Error()).WithCause(e)
	case e.StatusCode == http.StatusNotFound:
		return errors.NotFound("endpoint", e.URL).WithCause(e)
	case e.StatusCode >= 400 && e.StatusCode < 500 && !e.Retryable:
		return errors.InvalidInput("request", fmt.Sprintf("HTTP %d", e.StatusCode)).WithCause(e)
	default:
		return errors.ExternalServiceError(e.Service, e)
	}
}

// classifyStatus returns nil for 2xx and an *Error otherwise. 408, 429
// and 5xx are retryable.
func classifyStatus(status int, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}
	retryable := status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
	return &Error{Kind: KindStatus, StatusCode: status, Body: body, Retryable: retryable}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Retryable
	}
	return resilience.DefaultRetryIf(err)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
