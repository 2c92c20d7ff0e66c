package graceful

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Laisky/zap"

	"github.com/fuchsia74/openai-limiter/common/logger"
)

// Lifecycle manager for graceful shutdown and request draining.

var (
	inFlightRequests int64
	draining         atomic.Bool
)

// BeginRequest increments the in-flight request counter and returns a function
// to decrement it. Use with `defer` at the top of request handlers/middlewares.
func BeginRequest() func() {
	atomic.AddInt64(&inFlightRequests, 1)
	return func() {
		atomic.AddInt64(&inFlightRequests, -1)
	}
}

// InFlight reports the number of requests currently being served.
func InFlight() int64 {
	return atomic.LoadInt64(&inFlightRequests)
}

// StartDraining marks the process as draining; long-lived handlers may consult
// Draining to cut streams short.
func StartDraining() {
	draining.Store(true)
}

// Draining reports whether shutdown has begun.
func Draining() bool {
	return draining.Load()
}

// Drain waits for in-flight requests to reach zero after Server.Shutdown stops
// accepting new ones, bounded by ctx deadline.
func Drain(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		remaining := InFlight()
		if remaining == 0 {
			logger.Logger.Info("all in-flight requests drained")
			return nil
		}

		select {
		case <-ctx.Done():
			logger.Logger.Warn("drain timed out with requests still in flight",
				zap.Int64("in_flight", remaining))
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
