package httpclient

import (
	"context"
	nethttp "net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/reqshield/reqshield/cache"
	"github.com/reqshield/reqshield/events"
	"github.com/reqshield/reqshield/trace"
)

const (
	// HeaderXRequestID carries the per-attempt request ID.
	HeaderXRequestID = trace.HeaderXRequestID
	// HeaderTraceParent is the W3C trace context header name.
	HeaderTraceParent = trace.HeaderTraceParent
)

// Client is the outbound HTTP contract. One call to any method is a
// logical request that may span several network attempts.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
}

// Request describes one logical outbound request. It is not mutated by
// the client; construct a fresh value per call.
type Request struct {
	// URL is absolute, or relative to the configured base URL.
	URL     string
	Headers map[string]string
	Body    []byte
	Auth    *BasicAuth
}

// Response is the transport-level result of a logical request.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
	// FromCache reports that the response was served by the read-through
	// cache without a network attempt.
	FromCache bool
}

// Stats describes how the logical request executed.
type Stats struct {
	ElapsedTime time.Duration
	Attempts    int
	CallCount   int64
}

// BasicAuth holds basic authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// RequestInterceptor runs before each attempt is sent.
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor runs after each attempt's response is received.
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the client configuration. Zero values fall back to the
// package defaults at build time.
type Config struct {
	// BaseURL is prefixed to relative request URLs.
	BaseURL string

	// Timeout bounds each individual attempt, not the logical request.
	Timeout time.Duration

	// MaxRetries is the number of re-attempts after the first; a logical
	// request makes at most MaxRetries+1 attempts.
	MaxRetries int

	// RetryDelay is the backoff base: delay before attempt n+1 is
	// RetryDelay * 2^(n-1) plus jitter.
	RetryDelay time.Duration

	// MaxRetryJitter bounds the additive uniform jitter (default 1s).
	MaxRetryJitter time.Duration

	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	BasicAuth            *BasicAuth
	DefaultHeaders       map[string]string

	// LogPayloads enables debug-level logging of headers and bodies.
	LogPayloads bool
	// MaxPayloadLogBytes caps logged body bytes when LogPayloads is on.
	MaxPayloadLogBytes int

	// TraceIDHeader is the header used for trace ID propagation.
	TraceIDHeader string
	// EnableW3CTrace propagates/generates a traceparent header.
	EnableW3CTrace bool

	// Sink receives advisory per-attempt events. Defaults to a no-op.
	Sink events.Sink

	// Limiter throttles attempts across the client when set.
	Limiter *rate.Limiter

	// Cache enables read-through caching of successful GET responses
	// when set together with a positive CacheTTL.
	Cache    cache.Cache
	CacheTTL time.Duration
}
