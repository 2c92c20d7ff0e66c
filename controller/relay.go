// Package controller implements the gateway's HTTP handlers: the two
// token-budgeted relay routes and the transparent fallback proxy.
package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/openai-limiter/common/client"
	"github.com/fuchsia74/openai-limiter/common/config"
	"github.com/fuchsia74/openai-limiter/common/graceful"
	"github.com/fuchsia74/openai-limiter/common/render"
	"github.com/fuchsia74/openai-limiter/monitor"
	"github.com/fuchsia74/openai-limiter/relay/cot"
	"github.com/fuchsia74/openai-limiter/relay/model"
	"github.com/fuchsia74/openai-limiter/relay/streaming"
	"github.com/fuchsia74/openai-limiter/relay/token"
)

const (
	routeCompletions     = "completions"
	routeChatCompletions = "chat_completions"
	routeProxy           = "proxy"
)

// RelayCompletion handles POST /v1/completions: truncates the prompt to the
// configured input budget and forwards the request, transforming the response
// stream when a chain-of-thought dialect is configured.
func RelayCompletion(c *gin.Context) {
	var req model.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		monitor.RelayRequests.WithLabelValues(routeCompletions, "bad_request").Inc()
		c.JSON(http.StatusBadRequest, errorBody(err, "invalid_request_body"))
		return
	}

	if config.InputMaxToken > 0 {
		truncated := token.TruncateText(c, req.Prompt, config.InputMaxToken)
		if truncated != req.Prompt {
			monitor.PromptsTruncated.WithLabelValues(routeCompletions).Inc()
			req.Prompt = truncated
		}
	}

	forwardRequest(c, routeCompletions, "/v1/completions", req.IsStream(), req)
}

// RelayChatCompletion handles POST /v1/chat/completions: truncates the
// conversation oldest-first and forwards the request.
func RelayChatCompletion(c *gin.Context) {
	var req model.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		monitor.RelayRequests.WithLabelValues(routeChatCompletions, "bad_request").Inc()
		c.JSON(http.StatusBadRequest, errorBody(err, "invalid_request_body"))
		return
	}

	if config.InputMaxToken > 0 {
		before := make([]string, len(req.Messages))
		for i := range req.Messages {
			before[i] = req.Messages[i].Content
		}

		req.Messages = token.TruncateMessages(c, req.Messages, config.InputMaxToken)

		dropped := len(before) - len(req.Messages)
		if dropped > 0 || (len(req.Messages) > 0 && req.Messages[0].Content != before[dropped]) {
			monitor.PromptsTruncated.WithLabelValues(routeChatCompletions).Inc()
		}
	}

	forwardRequest(c, routeChatCompletions, "/v1/chat/completions", req.IsStream(), req)
}

// RelayProxy forwards any other path verbatim: streamed body both ways, status
// and response headers mirrored, only the Authorization header retained on the
// upstream request.
func RelayProxy(c *gin.Context) {
	lg := gmw.GetLogger(c)

	url := config.BackendAddr + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		url += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, url, c.Request.Body)
	if err != nil {
		monitor.RelayRequests.WithLabelValues(routeProxy, "bad_request").Inc()
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	retainAuthHeader(c, req)

	resp, err := client.StreamClient.Do(req)
	if err != nil {
		lg.Error("proxy request failed", zap.String("url", url), zap.Error(err))
		monitor.RelayRequests.WithLabelValues(routeProxy, "backend_error").Inc()
		c.String(http.StatusBadGateway, err.Error())
		return
	}
	defer func() { _ = resp.Body.Close() }()

	monitor.RelayRequests.WithLabelValues(routeProxy, "ok").Inc()
	relayResponse(c, resp)
}

// forwardRequest serializes body to the backend. Streaming requests with a
// configured chain-of-thought dialect go through the extraction pipeline;
// everything else is copied through unbuffered.
func forwardRequest(c *gin.Context, route, path string, isStream bool, body any) {
	lg := gmw.GetLogger(c)

	payload, err := json.Marshal(body)
	if err != nil {
		monitor.RelayRequests.WithLabelValues(route, "bad_request").Inc()
		c.JSON(http.StatusInternalServerError, errorBody(err, "encode_request_failed"))
		return
	}

	url := config.BackendAddr + path

	if isStream && config.CotParser != "" {
		extract, err := cot.ForDialect(config.CotParser)
		if err != nil {
			// Dialect names are validated at startup; reaching this is a bug.
			monitor.RelayRequests.WithLabelValues(route, "bad_request").Inc()
			c.JSON(http.StatusInternalServerError, errorBody(err, "invalid_cot_parser"))
			return
		}
		relayStream(c, route, url, payload, extract)
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err, "build_request_failed"))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	retainAuthHeader(c, req)

	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		lg.Error("backend request failed", zap.String("url", url), zap.Error(err))
		monitor.RelayRequests.WithLabelValues(route, "backend_error").Inc()
		c.String(http.StatusBadGateway, err.Error())
		return
	}
	defer func() { _ = resp.Body.Close() }()

	monitor.RelayRequests.WithLabelValues(route, "ok").Inc()
	relayResponse(c, resp)
}

// relayStream pipes the backend SSE response through the think-tag extractor
// and re-emits each rewritten chunk as an SSE event. The first malformed chunk
// or transport error terminates the stream without a [DONE] sentinel.
func relayStream(c *gin.Context, route, url string, payload []byte, extract cot.Extractor) {
	lg := gmw.GetLogger(c)

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err, "build_request_failed"))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	retainAuthHeader(c, req)

	resp, err := client.StreamClient.Do(req)
	if err != nil {
		lg.Error("backend stream request failed", zap.String("url", url), zap.Error(err))
		monitor.RelayRequests.WithLabelValues(route, "backend_error").Inc()
		c.String(http.StatusBadGateway, err.Error())
		return
	}

	if resp.StatusCode != http.StatusOK {
		// Backend refused the stream; mirror its answer instead of wrapping it
		// in SSE framing.
		defer func() { _ = resp.Body.Close() }()
		lg.Error("backend rejected stream request",
			zap.String("url", url),
			zap.Int("status_code", resp.StatusCode))
		monitor.RelayRequests.WithLabelValues(route, "backend_error").Inc()
		relayResponse(c, resp)
		return
	}

	monitor.RelayRequests.WithLabelValues(route, "ok").Inc()
	monitor.ReasoningStreams.Inc()
	render.SetEventStreamHeaders(c)

	// ChunkStream owns resp.Body and closes it when the loop ends, including
	// on early break when the client goes away.
	for chunk, err := range extract(streaming.ChunkStream(resp.Body)) {
		if err != nil {
			lg.Error("sse stream error happened", zap.Error(err))
			monitor.StreamErrors.Inc()
			return
		}

		if c.Request.Context().Err() != nil || graceful.Draining() {
			return
		}

		if err := streaming.WriteChunk(c, chunk); err != nil {
			lg.Error("failed to write stream chunk", zap.Error(err))
			return
		}
	}

	streaming.WriteDone(c)
}

// relayResponse copies status, headers, and body of a backend response to the
// client without buffering.
func relayResponse(c *gin.Context, resp *http.Response) {
	for k, values := range resp.Header {
		for _, v := range values {
			c.Writer.Header().Add(k, v)
		}
	}
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		gmw.GetLogger(c).Warn("copy backend response interrupted", zap.Error(err))
	}
}

// retainAuthHeader forwards only the client's Authorization header upstream;
// every other inbound header is dropped.
func retainAuthHeader(c *gin.Context, req *http.Request) {
	if auth := c.GetHeader("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
}

func errorBody(err error, code string) gin.H {
	return gin.H{
		"error": model.Error{
			Message:  err.Error(),
			Type:     "openai_limiter_error",
			Code:     code,
			RawError: err,
		},
	}
}
