// Package streaming bridges the backend's SSE wire format and the in-process
// chunk iterator the extraction pipeline operates on.
package streaming

import (
	"bufio"
	"encoding/json"
	"io"
	"iter"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/openai-limiter/common/render"
	"github.com/fuchsia74/openai-limiter/relay/model"
)

const (
	DataPrefix       = "data: "
	DataPrefixLength = len(DataPrefix)
	Done             = "[DONE]"
)

// NormalizeDataLine normalizes SSE data lines
func NormalizeDataLine(data string) string {
	if strings.HasPrefix(data, "data:") {
		content := strings.TrimLeft(data[len("data:"):], " ")
		return "data: " + content
	}
	return data
}

// ChunkStream reads SSE events off a backend response body and yields one
// parsed Chunk per data line. Non-data lines are ignored; the [DONE] sentinel
// is consumed and never forwarded. Read or parse failures yield a single
// terminal error. The body is closed when iteration ends, including when the
// consumer stops pulling early.
func ChunkStream(body io.ReadCloser) iter.Seq2[*model.Chunk, error] {
	return func(yield func(*model.Chunk, error) bool) {
		defer func() { _ = body.Close() }()

		scanner := bufio.NewScanner(body)
		buffer := make([]byte, 1024*1024) // 1MB buffer
		scanner.Buffer(buffer, len(buffer))
		scanner.Split(bufio.ScanLines)

		for scanner.Scan() {
			data := NormalizeDataLine(scanner.Text())
			if len(data) < DataPrefixLength || data[:DataPrefixLength] != DataPrefix {
				continue
			}

			payload := data[DataPrefixLength:]
			if strings.HasPrefix(payload, Done) {
				return
			}

			var chunk model.Chunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				yield(nil, errors.Wrapf(err, "parse stream chunk %q", payload))
				return
			}

			if !yield(&chunk, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, errors.Wrap(err, "read stream"))
		}
	}
}

// WriteChunk re-serializes one chunk as an SSE event on the client connection
// and flushes it.
func WriteChunk(c *gin.Context, chunk *model.Chunk) error {
	return render.ObjectData(c, chunk)
}

// WriteDone emits the terminal sentinel on the client connection.
func WriteDone(c *gin.Context) {
	render.StringData(c, DataPrefix+Done)
}
