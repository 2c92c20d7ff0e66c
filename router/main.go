// Package router wires the gateway's route table: the two budgeted relay
// routes, the optional metrics endpoint, and the transparent fallback proxy
// for everything else.
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fuchsia74/openai-limiter/common/config"
	"github.com/fuchsia74/openai-limiter/common/logger"
	"github.com/fuchsia74/openai-limiter/controller"
	"github.com/fuchsia74/openai-limiter/middleware"
)

// SetRouter registers all routes on the engine.
func SetRouter(server *gin.Engine) {
	server.Use(
		middleware.RelayPanicRecover(),
		middleware.TrackInFlight(),
		cors.New(cors.Config{
			AllowAllOrigins:     true,
			AllowMethods:        []string{"GET", "POST"},
			AllowHeaders:        []string{"*"},
			AllowPrivateNetwork: true,
		}),
	)

	v1 := server.Group("/v1")
	v1.POST("/completions", controller.RelayCompletion)
	v1.POST("/chat/completions", controller.RelayChatCompletion)

	if config.EnablePrometheusMetrics {
		server.GET("/metrics", gin.WrapH(promhttp.Handler()))
		logger.Logger.Info("Prometheus metrics endpoint available at /metrics")
	}

	// Everything else is proxied byte-for-byte.
	server.NoRoute(controller.RelayProxy)
}
