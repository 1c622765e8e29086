package utils

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SSEWriter streams server-sent events over an echo response.
type SSEWriter struct {
	response *echo.Response
}

func NewSSEWriter(c echo.Context) *SSEWriter {
	r := c.Response()
	r.Header().Set(echo.HeaderContentType, "text/event-stream")
	r.Header().Set("Cache-Control", "no-cache")
	r.Header().Set("Connection", "keep-alive")
	r.WriteHeader(http.StatusOK)
	return &SSEWriter{response: r}
}

// Event writes one named event with a JSON payload and flushes immediately.
func (w *SSEWriter) Event(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w.response, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.response.Flush()
	return nil
}

func (w *SSEWriter) Close() {
	w.response.Flush()
}
