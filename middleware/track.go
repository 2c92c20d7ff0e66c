package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/openai-limiter/common/graceful"
)

// TrackInFlight counts requests so shutdown can drain them before exiting.
func TrackInFlight() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := graceful.BeginRequest()
		defer done()
		c.Next()
	}
}
