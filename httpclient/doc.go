// Package httpclient provides a small, composable HTTP client with a
// bounded retry loop, per-attempt timeouts, request/response interceptors,
// default headers, optional rate limiting, and optional read-through
// response caching.
//
// # Retries
//
//   - Controlled via Builder.WithRetries(maxRetries, retryDelay). A logical
//     request makes between 1 and maxRetries+1 attempts.
//   - Retries occur on transport errors, per-attempt timeouts, HTTP 5xx,
//     and HTTP 429.
//   - Other 4xx responses are never retried. Caller-initiated cancellation
//     is terminal and short-circuits the loop, including during the
//     inter-attempt delay.
//
// # Backoff
//
//   - Delay before attempt n+1 is retryDelay * 2^(n-1), capped at 30s,
//     plus an additive uniform jitter in [0, maxJitter]. Jitter never
//     shortens the delay.
//   - The delay starts only after the prior attempt's outcome is known.
//
// # Observability
//
//   - Each attempt emits one advisory event through the configured
//     events.Sink (attempt number, chosen delay, classification). Sinks
//     never affect control flow.
//   - Every attempt carries a fresh X-Request-ID for log correlation.
//
// # Notes
//
//   - Request bodies are re-sent by rebuilding the http.Request on each
//     attempt.
//   - Interceptor errors are surfaced immediately and not retried.
package httpclient
