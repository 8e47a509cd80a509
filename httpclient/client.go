package httpclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/reqshield/reqshield/cache"
	"github.com/reqshield/reqshield/events"
	"github.com/reqshield/reqshield/logger"
	"github.com/reqshield/reqshield/trace"
)

const (
	// DefaultTimeout bounds each individual attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries disables retries unless configured.
	DefaultMaxRetries = 0

	// DefaultRetryDelay is the backoff base.
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryJitter bounds the additive jitter.
	DefaultMaxRetryJitter = 1 * time.Second

	// DefaultMaxPayloadLogBytes caps payload bytes written to debug logs.
	DefaultMaxPayloadLogBytes = 1024

	// maxBackoff caps the exponential delay before jitter.
	maxBackoff = 30 * time.Second
)

// client implements the Client interface.
type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	sink                 events.Sink
	readThrough          *cache.ReadThrough
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	callCount            int64
}

// NewClient creates a client with default configuration.
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder assembles a Client fluently.
type Builder struct {
	config *Config
	logger logger.Logger
	http   *nethttp.Client
}

// NewBuilder creates a builder seeded with package defaults.
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:            DefaultTimeout,
			MaxRetries:         DefaultMaxRetries,
			RetryDelay:         DefaultRetryDelay,
			MaxRetryJitter:     DefaultMaxRetryJitter,
			MaxPayloadLogBytes: DefaultMaxPayloadLogBytes,
			TraceIDHeader:      HeaderXRequestID,
			DefaultHeaders:     make(map[string]string),
			Sink:               events.NopSink{},
		},
		logger: log,
	}
}

// WithBaseURL sets the base URL prefixed to relative request URLs.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithTimeout sets the per-attempt timeout.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the retry budget and backoff base.
func (b *Builder) WithRetries(maxRetries int, retryDelay time.Duration) *Builder {
	b.config.MaxRetries = maxRetries
	b.config.RetryDelay = retryDelay
	return b
}

// WithRetryJitter bounds the additive jitter; zero disables it.
func (b *Builder) WithRetryJitter(maxJitter time.Duration) *Builder {
	b.config.MaxRetryJitter = maxJitter
	return b
}

// WithBasicAuth sets client-level basic auth credentials.
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.BasicAuth = &BasicAuth{Username: username, Password: password}
	return b
}

// WithDefaultHeader adds a header sent with every request.
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor appends a request interceptor.
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor appends a response interceptor.
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithPayloadLogging enables debug-level payload logging capped at maxBytes.
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithTraceIDHeader overrides the header used for request ID propagation.
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	if header != "" {
		b.config.TraceIDHeader = header
	}
	return b
}

// WithW3CTrace toggles traceparent propagation.
func (b *Builder) WithW3CTrace(enabled bool) *Builder {
	b.config.EnableW3CTrace = enabled
	return b
}

// WithEventSink routes advisory attempt events to sink.
func (b *Builder) WithEventSink(sink events.Sink) *Builder {
	if sink != nil {
		b.config.Sink = sink
	}
	return b
}

// WithRateLimit throttles attempts to rps requests per second with the
// given burst. Non-positive rps disables throttling.
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	if rps > 0 {
		b.config.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return b
}

// WithCache enables read-through caching of successful GET responses.
func (b *Builder) WithCache(c cache.Cache, ttl time.Duration) *Builder {
	b.config.Cache = c
	b.config.CacheTTL = ttl
	return b
}

// WithHTTPClient substitutes the underlying transport client.
func (b *Builder) WithHTTPClient(hc *nethttp.Client) *Builder {
	b.http = hc
	return b
}

// WithTransport substitutes the underlying round tripper.
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.http = &nethttp.Client{Transport: rt}
	return b
}

// Build assembles the client.
func (b *Builder) Build() Client {
	hc := b.http
	if hc == nil {
		hc = &nethttp.Client{}
	}

	sink := b.config.Sink
	if sink == nil {
		sink = events.NopSink{}
	}

	c := &client{
		httpClient:           hc,
		logger:               b.logger,
		config:               b.config,
		sink:                 sink,
		requestInterceptors:  b.config.RequestInterceptors,
		responseInterceptors: b.config.ResponseInterceptors,
	}
	if b.config.Cache != nil && b.config.CacheTTL > 0 {
		c.readThrough = cache.NewReadThrough(b.config.Cache)
	}
	return c
}

// Get performs a GET request.
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request.
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request.
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request.
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request.
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Do performs a logical request with the given method.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	target, err := c.resolveURL(req.URL)
	if err != nil {
		return nil, err
	}

	if method == nethttp.MethodGet && c.readThrough != nil {
		return c.doCached(ctx, method, req, target)
	}
	return c.execute(ctx, method, req, target)
}

// cachedResponse is the serialized form of a Response stored in the cache.
type cachedResponse struct {
	StatusCode int            `json:"status_code"`
	Headers    nethttp.Header `json:"headers"`
	Body       []byte         `json:"body"`
}

// doCached serves GETs through the read-through cache. Only successful
// responses are cached; failures always come from a live attempt.
func (c *client) doCached(ctx context.Context, method string, req *Request, target string) (*Response, error) {
	key := cache.RequestKey(method, target, req.Body)

	var fresh *Response
	raw, err := c.readThrough.Fetch(ctx, key, c.config.CacheTTL, func(ctx context.Context) ([]byte, error) {
		resp, err := c.execute(ctx, method, req, target)
		if err != nil {
			return nil, err
		}
		fresh = resp
		return json.Marshal(cachedResponse{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		})
	})
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		return fresh, nil
	}

	var cached cachedResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		// A corrupt cache entry is not worth failing a request over.
		return c.execute(ctx, method, req, target)
	}
	return &Response{
		StatusCode: cached.StatusCode,
		Headers:    cached.Headers,
		Body:       cached.Body,
		FromCache:  true,
	}, nil
}

// execute runs the bounded retry loop: between 1 and MaxRetries+1 strictly
// sequential attempts, backing off between retryable failures.
func (c *client) execute(ctx context.Context, method string, req *Request, target string) (*Response, error) {
	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)
	maxAttempts := c.config.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		requestID := trace.NewRequestID()

		resp, err := c.attempt(ctx, method, req, target, requestID)
		if resp != nil {
			resp.Stats = Stats{
				ElapsedTime: time.Since(start),
				Attempts:    attempt,
				CallCount:   callCount,
			}
		}

		if err == nil && IsSuccessStatus(resp.StatusCode) {
			c.emitAttempt(ctx, requestID, attempt, 0, "success", resp.StatusCode)
			c.logResponse(resp, requestID)
			return resp, nil
		}

		var classification string
		var status int
		retryable := false
		switch {
		case err != nil:
			var clientErr ClientError
			if errors.As(err, &clientErr) {
				classification = string(clientErr.Type())
			} else {
				classification = "unknown"
				err = NewNetworkError("request execution failed", err)
			}
			retryable = IsErrorType(err, NetworkError) || IsErrorType(err, TimeoutError)
			lastErr = err
		default:
			status = resp.StatusCode
			classification = fmt.Sprintf("http_%d", status)
			retryable = IsRetryableStatus(status)
			lastErr = NewHTTPStatusError(status, resp.Body)
			c.logResponse(resp, requestID)
		}

		if !retryable || attempt == maxAttempts {
			c.emitAttempt(ctx, requestID, attempt, 0, classification, status)
			if resp != nil {
				return resp, lastErr
			}
			return nil, lastErr
		}

		delay := c.backoffDelay(attempt)
		c.emitAttempt(ctx, requestID, attempt, delay, classification, status)

		// Cancellation during the inter-attempt delay skips the next
		// attempt and resolves immediately.
		if err := sleepContext(ctx, delay); err != nil {
			return nil, NewAbortError("request canceled during retry delay", err)
		}
	}

	return nil, lastErr
}

// attempt performs exactly one network call and classifies its outcome.
func (c *client) attempt(ctx context.Context, method string, req *Request, target, requestID string) (*Response, error) {
	if c.config.Limiter != nil {
		if err := c.config.Limiter.Wait(ctx); err != nil {
			return nil, NewAbortError("request canceled while rate limited", err)
		}
	}

	timeout := c.config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.buildRequest(attemptCtx, method, req, target, requestID)
	if err != nil {
		return nil, err
	}

	c.logRequest(httpReq, req.Body, requestID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransportError(ctx, attemptCtx, err, timeout)
	}
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(attemptCtx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.classifyTransportError(ctx, attemptCtx, err, timeout)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

// classifyTransportError maps a transport failure onto the error taxonomy.
// Caller cancellation wins over everything; per-attempt deadline and
// net.Error timeouts classify as timeouts; the rest is a network failure.
func (c *client) classifyTransportError(ctx, attemptCtx context.Context, err error, timeout time.Duration) error {
	if ctx.Err() != nil {
		return NewAbortError("request canceled", ctx.Err())
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError("attempt timed out", timeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError("attempt timed out", timeout)
	}
	return NewNetworkError("request execution failed", err)
}

// backoffDelay computes the delay before attempt n+1 given attempt n:
// base * 2^(n-1), capped, plus additive uniform jitter.
func (c *client) backoffDelay(attempt int) time.Duration {
	base := c.config.RetryDelay
	if base <= 0 {
		base = DefaultRetryDelay
	}

	shift := attempt - 1
	if shift > 20 {
		shift = 20
	}
	d := base * time.Duration(1<<shift)
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d + c.jitter()
}

// jitter draws a uniform duration in [0, MaxRetryJitter]. Jitter only
// ever lengthens the delay.
func (c *client) jitter() time.Duration {
	maxJitter := c.config.MaxRetryJitter
	if maxJitter <= 0 {
		return 0
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(maxJitter)+1))
	if err != nil {
		return maxJitter
	}
	return time.Duration(n.Int64())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// emitAttempt publishes one advisory event per attempt. Sinks are
// fire-and-forget and never influence the loop.
func (c *client) emitAttempt(ctx context.Context, requestID string, attempt int, delay time.Duration, classification string, status int) {
	fields := map[string]any{
		"request_id":     requestID,
		"attempt":        attempt,
		"delay_ms":       delay.Milliseconds(),
		"classification": classification,
	}
	if status != 0 {
		fields["status"] = status
	}
	c.sink.Emit(ctx, events.Event{
		Name:   events.EventAttempt,
		At:     time.Now(),
		Fields: fields,
	})
}

func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	return nil
}

// resolveURL joins relative request URLs onto the configured base URL.
func (c *client) resolveURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", NewValidationError("invalid URL", "url")
	}
	if u.IsAbs() || c.config.BaseURL == "" {
		return raw, nil
	}
	return strings.TrimSuffix(c.config.BaseURL, "/") + "/" + strings.TrimPrefix(raw, "/"), nil
}

// buildRequest constructs the per-attempt *http.Request: headers, auth,
// trace headers, and request interceptors.
func (c *client) buildRequest(ctx context.Context, method string, req *Request, target, requestID string) (*nethttp.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, NewNetworkError("failed to create HTTP request", err)
	}

	c.applyHeaders(httpReq, req)
	c.applyAuth(httpReq, req)
	c.applyTraceHeaders(ctx, httpReq, requestID)

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, nil
}

func (c *client) applyHeaders(httpReq *nethttp.Request, req *Request) {
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	// Request-specific headers override defaults.
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if httpReq.Header.Get("Content-Type") == "" && req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
}

func (c *client) applyAuth(httpReq *nethttp.Request, req *Request) {
	auth := req.Auth
	if auth == nil {
		auth = c.config.BasicAuth
	}
	if auth != nil {
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	}
}

// applyTraceHeaders stamps the attempt's request ID and, when enabled,
// W3C trace context. Existing caller-supplied headers are preserved.
func (c *client) applyTraceHeaders(ctx context.Context, httpReq *nethttp.Request, requestID string) {
	header := c.config.TraceIDHeader
	if header == "" {
		header = HeaderXRequestID
	}
	if httpReq.Header.Get(header) == "" {
		if traceID, ok := trace.IDFromContext(ctx); ok {
			httpReq.Header.Set(header, traceID)
		} else {
			httpReq.Header.Set(header, requestID)
		}
	}

	if c.config.EnableW3CTrace && httpReq.Header.Get(HeaderTraceParent) == "" {
		if parent, ok := trace.ParentFromContext(ctx); ok {
			httpReq.Header.Set(HeaderTraceParent, parent)
		} else {
			httpReq.Header.Set(HeaderTraceParent, trace.GenerateTraceParent())
		}
	}
}

func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}
