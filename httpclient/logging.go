package httpclient

import (
	nethttp "net/http"
)

// logRequest logs the outgoing attempt at info level, plus a debug entry
// with headers and a capped body preview when payload logging is enabled.
func (c *client) logRequest(req *nethttp.Request, body []byte, requestID string) {
	infoEvent := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", requestID)

	if n := len(req.Header); n > 0 {
		infoEvent = infoEvent.Int("header_count", n)
	}
	if len(body) > 0 {
		infoEvent = infoEvent.Int("body_size", len(body))
	}
	infoEvent.Msg("REST client request")

	if !c.config.LogPayloads {
		return
	}

	preview, truncated := c.payloadPreview(body)
	debugEvent := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", requestID).
		Interface("headers", req.Header).
		Int("body_size", len(body)).
		Bool("body_truncated", truncated)

	if len(preview) > 0 {
		debugEvent = debugEvent.Bytes("body_preview", preview)
	}
	debugEvent.Msg("REST client request")
}

// logResponse logs the attempt's response at info level, plus a debug
// payload entry when enabled.
func (c *client) logResponse(resp *Response, requestID string) {
	infoEvent := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int("attempts", resp.Stats.Attempts).
		Int64("call_count", resp.Stats.CallCount)

	if len(resp.Body) > 0 {
		infoEvent = infoEvent.Int("body_size", len(resp.Body))
	}
	infoEvent.Msg("REST client response")

	if !c.config.LogPayloads {
		return
	}

	preview, truncated := c.payloadPreview(resp.Body)
	debugEvent := c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Interface("headers", resp.Headers).
		Int("body_size", len(resp.Body)).
		Bool("body_truncated", truncated)

	if len(preview) > 0 {
		debugEvent = debugEvent.Bytes("body_preview", preview)
	}
	debugEvent.Msg("REST client response")
}

// payloadPreview caps body bytes for debug logging.
func (c *client) payloadPreview(body []byte) (preview []byte, truncated bool) {
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadLogBytes
	}
	if len(body) > limit {
		return body[:limit], true
	}
	return body, false
}
