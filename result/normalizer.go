package result

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/reqshield/reqshield/creds"
	"github.com/reqshield/reqshield/events"
	"github.com/reqshield/reqshield/httpclient"
	"github.com/reqshield/reqshield/logger"
)

const headerAuthorization = "Authorization"

// Normalizer converts every terminal outcome of the HTTP client into a
// Result and owns the authentication-expiry side effect: a terminal 401
// clears the credential store and emits one credentials_invalidated
// event per logical request.
type Normalizer struct {
	client httpclient.Client
	logger logger.Logger
	store  creds.Store
	sink   events.Sink
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCredentialStore injects the credential store consulted for bearer
// tokens and cleared on terminal 401 responses.
func WithCredentialStore(store creds.Store) Option {
	return func(n *Normalizer) {
		n.store = store
	}
}

// WithEventSink injects the sink receiving the credentials_invalidated
// signal. Defaults to a no-op sink.
func WithEventSink(sink events.Sink) Option {
	return func(n *Normalizer) {
		if sink != nil {
			n.sink = sink
		}
	}
}

// New creates a Normalizer around the given client.
func New(client httpclient.Client, log logger.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		client: client,
		logger: log,
		sink:   events.NopSink{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Do executes a logical request and normalizes its terminal outcome.
// The type parameter is the expected shape of a 2xx JSON body; use
// json.RawMessage to defer decoding, or struct{} to discard the body.
func Do[T any](ctx context.Context, n *Normalizer, method string, req *httpclient.Request) Result[T] {
	resp, err := n.client.Do(ctx, method, n.withCredentials(req))
	return normalize[T](ctx, n, resp, err)
}

// Get executes a GET request. See Do.
func Get[T any](ctx context.Context, n *Normalizer, req *httpclient.Request) Result[T] {
	return Do[T](ctx, n, nethttp.MethodGet, req)
}

// Post executes a POST request. See Do.
func Post[T any](ctx context.Context, n *Normalizer, req *httpclient.Request) Result[T] {
	return Do[T](ctx, n, nethttp.MethodPost, req)
}

// Put executes a PUT request. See Do.
func Put[T any](ctx context.Context, n *Normalizer, req *httpclient.Request) Result[T] {
	return Do[T](ctx, n, nethttp.MethodPut, req)
}

// Patch executes a PATCH request. See Do.
func Patch[T any](ctx context.Context, n *Normalizer, req *httpclient.Request) Result[T] {
	return Do[T](ctx, n, nethttp.MethodPatch, req)
}

// Delete executes a DELETE request. See Do.
func Delete[T any](ctx context.Context, n *Normalizer, req *httpclient.Request) Result[T] {
	return Do[T](ctx, n, nethttp.MethodDelete, req)
}

// withCredentials returns the request with a bearer token attached when
// the store holds one and the caller did not set Authorization itself.
// The caller's Request is never mutated.
func (n *Normalizer) withCredentials(req *httpclient.Request) *httpclient.Request {
	if n.store == nil || req == nil {
		return req
	}
	token, ok := n.store.Get()
	if !ok || token == "" {
		return req
	}
	if _, exists := req.Headers[headerAuthorization]; exists {
		return req
	}

	clone := *req
	clone.Headers = make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		clone.Headers[k] = v
	}
	clone.Headers[headerAuthorization] = "Bearer " + token
	return &clone
}

// normalize funnels both the error and success paths into the Result
// shape. A 2xx body that fails to decode is a terminal PARSE_ERROR;
// decoding happens after the retry loop, so it is never re-attempted.
func normalize[T any](ctx context.Context, n *Normalizer, resp *httpclient.Response, err error) Result[T] {
	if err != nil {
		return failure[T](n.classify(ctx, err), resp)
	}

	var data T
	if len(resp.Body) > 0 {
		if decodeErr := json.Unmarshal(resp.Body, &data); decodeErr != nil {
			n.logger.Warn().
				Err(decodeErr).
				Int("status", resp.StatusCode).
				Int("body_size", len(resp.Body)).
				Msg("Failed to decode response body")
			return failure[T](&Error{
				Code:    CodeParseError,
				Message: "failed to decode response body",
				Details: map[string]any{"status": resp.StatusCode},
			}, resp)
		}
	}
	return success[T](data, resp)
}

// classify maps a terminal client error onto the closed code set.
func (n *Normalizer) classify(ctx context.Context, err error) *Error {
	switch {
	case httpclient.IsErrorType(err, httpclient.NetworkError):
		return &Error{Code: CodeNetworkError, Message: err.Error()}
	case httpclient.IsErrorType(err, httpclient.TimeoutError):
		return &Error{Code: CodeTimeout, Message: err.Error()}
	case httpclient.IsErrorType(err, httpclient.AbortError):
		return &Error{Code: CodeAborted, Message: err.Error()}
	case httpclient.IsErrorType(err, httpclient.HTTPError):
		status, _ := httpclient.HTTPStatusFromError(err)
		if status == nethttp.StatusUnauthorized {
			n.credentialsInvalidated(ctx)
		}
		return &Error{
			Code:    CodeForStatus(status),
			Message: err.Error(),
			Details: map[string]any{"status": status},
		}
	default:
		return &Error{Code: CodeUnknownError, Message: err.Error()}
	}
}

// credentialsInvalidated clears stored credentials and emits the signal.
// Runs once per logical request: classification happens after the retry
// loop has produced its single terminal outcome.
func (n *Normalizer) credentialsInvalidated(ctx context.Context) {
	if n.store != nil {
		n.store.Clear()
	}
	n.sink.Emit(ctx, events.Event{
		Name: events.EventCredentialsInvalidated,
		At:   time.Now(),
	})
	n.logger.Warn().Msg("Credentials invalidated by terminal 401 response")
}
