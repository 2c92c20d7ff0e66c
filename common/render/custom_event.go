package render

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CustomEvent implements gin's render.Render for raw SSE data lines. Gin's
// built-in sse render escapes payloads in ways OpenAI clients do not expect,
// so events are written verbatim with the terminating blank line.
type CustomEvent struct {
	Event string
	Id    string
	Retry uint
	Data  any
}

var contentType = []string{"text/event-stream"}

var dataReplacer = strings.NewReplacer(
	"\n", "\ndata:",
	"\r", "\\r")

func encode(writer io.Writer, event CustomEvent) error {
	return writeData(writer, event.Data)
}

func writeData(w io.Writer, data any) error {
	if _, err := dataReplacer.WriteString(w, fmt.Sprint(data)); err != nil {
		return err
	}
	if s, ok := data.(string); ok && strings.HasPrefix(s, "data") {
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return err
		}
	}
	return nil
}

// Render writes the event to the response writer.
func (r CustomEvent) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	return encode(w, r)
}

// WriteContentType sets the SSE content type if not already set.
func (r CustomEvent) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if _, exist := header["Content-Type"]; !exist {
		header["Content-Type"] = contentType
	}
}
