// Package result is the caller-facing surface of the pipeline. It maps
// every terminal outcome of a logical request onto a closed error-code
// taxonomy, so callers branch on Code and never on transport error types
// or message text.
package result

import (
	"fmt"

	"github.com/reqshield/reqshield/httpclient"
)

// Stable error codes. HTTP failures use CodeForStatus instead.
const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeAborted      = "ABORTED"
	CodeParseError   = "PARSE_ERROR"
	CodeUnknownError = "UNKNOWN_ERROR"
)

// CodeForStatus returns the error code for a non-2xx HTTP status,
// e.g. "HTTP_404".
func CodeForStatus(status int) string {
	return fmt.Sprintf("HTTP_%d", status)
}

// Error is the normalized failure shape. Details carries optional
// machine-readable context such as the HTTP status.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result is the discriminated outcome of a logical request. Exactly one
// of Data or Err is populated.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Err     *Error `json:"error,omitempty"`

	// Stats and FromCache describe how the request executed; they are
	// advisory and absent on failures that never produced a response.
	Stats     httpclient.Stats `json:"-"`
	FromCache bool             `json:"-"`
}

func success[T any](data T, resp *httpclient.Response) Result[T] {
	r := Result[T]{Success: true, Data: data}
	if resp != nil {
		r.Stats = resp.Stats
		r.FromCache = resp.FromCache
	}
	return r
}

func failure[T any](err *Error, resp *httpclient.Response) Result[T] {
	r := Result[T]{Err: err}
	if resp != nil {
		r.Stats = resp.Stats
	}
	return r
}
