package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"
)

// ClientError is the closed error surface of the client. Every failure
// leaving this package is one of the types below; raw transport errors
// never escape.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType categorizes a ClientError.
type ErrorType string

const (
	NetworkError     ErrorType = "network"
	TimeoutError     ErrorType = "timeout"
	AbortError       ErrorType = "abort"
	HTTPError        ErrorType = "http"
	ValidationError  ErrorType = "validation"
	InterceptorError ErrorType = "interceptor"
)

// networkError covers DNS, connection, and other transport failures.
type networkError struct {
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("network error: %s", e.message)
}

func (e *networkError) Type() ErrorType { return NetworkError }
func (e *networkError) Unwrap() error   { return e.wrapped }

// timeoutError reports that an attempt exceeded the per-attempt timeout.
type timeoutError struct {
	message string
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType { return TimeoutError }

// abortError reports caller-initiated cancellation. Terminal: the retry
// loop never re-attempts after an abort.
type abortError struct {
	message string
	wrapped error
}

func (e *abortError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("abort error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("abort error: %s", e.message)
}

func (e *abortError) Type() ErrorType { return AbortError }
func (e *abortError) Unwrap() error   { return e.wrapped }

// httpError reports a non-2xx response.
type httpError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s (status: %d)", e.message, e.statusCode)
}

func (e *httpError) Type() ErrorType { return HTTPError }
func (e *httpError) StatusCode() int { return e.statusCode }
func (e *httpError) Body() []byte    { return e.body }

// validationError reports a malformed Request before any attempt is made.
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType { return ValidationError }

// interceptorError reports a failure inside a request or response
// interceptor. Not retried.
type interceptorError struct {
	message string
	stage   string
	wrapped error
}

func (e *interceptorError) Error() string {
	return fmt.Sprintf("interceptor error: %s (stage: %s): %v", e.message, e.stage, e.wrapped)
}

func (e *interceptorError) Type() ErrorType { return InterceptorError }
func (e *interceptorError) Unwrap() error   { return e.wrapped }

// NewNetworkError creates a network error wrapping the transport cause.
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{message: message, wrapped: wrapped}
}

// NewTimeoutError creates a timeout error carrying the configured timeout.
func NewTimeoutError(message string, timeout time.Duration) ClientError {
	return &timeoutError{message: message, timeout: timeout}
}

// NewAbortError creates an abort error wrapping the context cause.
func NewAbortError(message string, wrapped error) ClientError {
	return &abortError{message: message, wrapped: wrapped}
}

// NewHTTPError creates an HTTP error for a non-2xx status.
func NewHTTPError(message string, statusCode int, body []byte) ClientError {
	return &httpError{message: message, statusCode: statusCode, body: body}
}

// NewHTTPStatusError builds an HTTP error whose message is extracted from
// the response body when possible, falling back to the status text.
func NewHTTPStatusError(statusCode int, body []byte) ClientError {
	return NewHTTPError(messageFromBody(statusCode, body), statusCode, body)
}

// NewValidationError creates a request validation error.
func NewValidationError(message, field string) ClientError {
	return &validationError{message: message, field: field}
}

// NewInterceptorError creates an interceptor error for the given stage.
func NewInterceptorError(message, stage string, wrapped error) ClientError {
	return &interceptorError{message: message, stage: stage, wrapped: wrapped}
}

// messageFromBody extracts a human-readable error message from a JSON
// error body, best-effort. Parse failures fall back to the status text;
// they never fail the classification itself.
func messageFromBody(statusCode int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := nethttp.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP request failed with status %d", statusCode)
}

// IsErrorType reports whether err is a ClientError of the given type.
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsHTTPStatusError reports whether err is an HTTP error with the status.
func IsHTTPStatusError(err error, statusCode int) bool {
	status, ok := HTTPStatusFromError(err)
	return ok && status == statusCode
}

// HTTPStatusFromError extracts the status code from an HTTP error.
func HTTPStatusFromError(err error) (int, bool) {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode(), true
	}
	return 0, false
}

// IsSuccessStatus reports whether a status code is in [200, 300).
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// IsRetryableStatus reports whether a non-2xx status may be re-attempted:
// all 5xx plus 429.
func IsRetryableStatus(statusCode int) bool {
	return (statusCode >= 500 && statusCode < 600) || statusCode == nethttp.StatusTooManyRequests
}
