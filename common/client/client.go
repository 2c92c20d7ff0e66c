package client

import (
	"net/http"
	"time"

	"github.com/fuchsia74/openai-limiter/common/config"
)

var (
	// HTTPClient serves ordinary (non-streaming) upstream requests and honors
	// RELAY_TIMEOUT when configured.
	HTTPClient *http.Client
	// StreamClient serves streaming upstream requests and is never timed out
	// client-side; a stalled stream is the consumer's call to abandon.
	StreamClient *http.Client
)

func Init() {
	StreamClient = &http.Client{}

	if config.RelayTimeout == 0 {
		HTTPClient = &http.Client{}
	} else {
		HTTPClient = &http.Client{
			Timeout: time.Duration(config.RelayTimeout) * time.Second,
		}
	}
}
