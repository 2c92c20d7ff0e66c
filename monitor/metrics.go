// Package monitor exposes Prometheus metrics for the relay. Registration uses
// promauto against the default registry; the /metrics route is only mounted
// when ENABLE_PROMETHEUS_METRICS is set.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RelayRequests counts forwarded requests by route and outcome
	// (ok, backend_error, bad_request, stream_error).
	RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openai_limiter",
		Name:      "relay_requests_total",
		Help:      "Forwarded requests by route and outcome.",
	}, []string{"route", "outcome"})

	// PromptsTruncated counts requests whose prompt or conversation was cut to
	// fit the input token budget.
	PromptsTruncated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openai_limiter",
		Name:      "prompts_truncated_total",
		Help:      "Requests whose input was truncated to fit the token budget.",
	}, []string{"route"})

	// ReasoningStreams counts streaming responses run through think-tag
	// extraction.
	ReasoningStreams = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "openai_limiter",
		Name:      "reasoning_streams_total",
		Help:      "Streaming responses processed by the think-tag extractor.",
	})

	// StreamErrors counts streams aborted by malformed upstream protocol data
	// or transport failures.
	StreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "openai_limiter",
		Name:      "stream_errors_total",
		Help:      "Streams terminated by protocol or transport errors.",
	})
)
