package render

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
)

// SetEventStreamHeaders prepares the response for server-sent events.
func SetEventStreamHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Transfer-Encoding", "chunked")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
}

// StringData writes a single SSE data line and flushes it immediately so the
// client observes the event without waiting for the response to complete.
func StringData(c *gin.Context, str string) {
	str = strings.TrimPrefix(str, "data: ")
	str = strings.TrimSuffix(str, "\r")
	c.Render(-1, CustomEvent{Data: "data: " + str})
	c.Writer.Flush()
}

// ObjectData marshals object as JSON and writes it as one SSE data line.
func ObjectData(c *gin.Context, object any) error {
	jsonData, err := json.Marshal(object)
	if err != nil {
		return err
	}
	StringData(c, string(jsonData))
	return nil
}
