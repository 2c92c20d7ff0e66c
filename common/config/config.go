package config

import (
	"strings"
	"time"

	"github.com/fuchsia74/openai-limiter/common/env"
)

var (
	// BackendAddr is the base URL of the OpenAI-compatible backend every request is
	// forwarded to, e.g. "http://127.0.0.1:8000". Required.
	BackendAddr = strings.TrimRight(strings.TrimSpace(env.String("BACKEND", "")), "/")

	// InputMaxToken caps the encoded token count of inbound prompts/conversations.
	// Zero disables truncation entirely.
	InputMaxToken = env.Int("INPUT_MAX_TOKEN", 0)

	// CotParser selects which chain-of-thought dialect to extract from streaming
	// responses. Empty disables extraction. The only defined dialect is "deepseek",
	// the literal <think></think> convention.
	CotParser = strings.ToLower(strings.TrimSpace(env.String("COT_PARSER", "")))

	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)

	// OnlyOneLogFile writes a single log file instead of one per day.
	OnlyOneLogFile = env.Bool("ONLY_ONE_LOG_FILE", false)

	// ServerPort overrides the --port flag when running inside container or PaaS environments.
	ServerPort = strings.TrimSpace(env.String("PORT", ""))
	// GinMode allows forcing Gin into release mode (or other modes) without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))

	// EnablePrometheusMetrics exposes GET /metrics when true.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", false)

	// RelayTimeout bounds non-streaming upstream HTTP requests (seconds) before
	// aborting them. Zero means no client-side timeout. Streaming requests are
	// never timed out client-side.
	RelayTimeout = env.Int("RELAY_TIMEOUT", 0)

	// ShutdownTimeoutSec specifies the graceful shutdown timeout (seconds) for the
	// HTTP server and in-flight request draining.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 30)
)

// ShutdownTimeout returns ShutdownTimeoutSec as a duration.
func ShutdownTimeout() time.Duration {
	return time.Duration(ShutdownTimeoutSec) * time.Second
}
