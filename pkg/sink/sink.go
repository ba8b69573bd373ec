// Package sink serializes ORS stream events to an SSE response body
// (component E).
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/mrorigo/ors-proxy/pkg/api"
)

type writerState int

const (
	writerIdle writerState = iota
	writerStreaming
	writerClosed
)

// Writer serializes api.StreamEvents as SSE frames onto an
// http.ResponseWriter. It is safe for a single writer goroutine plus a
// concurrent keep-alive ticker to share, guarded by an internal mutex.
type Writer struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu    sync.Mutex
	state writerState
}

// NewWriter wraps an http.ResponseWriter for SSE output.
func NewWriter(w http.ResponseWriter) *Writer {
	return &Writer{w: w, rc: http.NewResponseController(w)}
}

// WriteEvent sends one event as an SSE frame:
//
//	event: {type}\n
//	data: {json}\n
//	\n
//
// The first call sets the SSE response headers.
func (s *Writer) WriteEvent(ctx context.Context, event api.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerClosed {
		return fmt.Errorf("sink: cannot write event, writer is closed")
	}
	if s.state == writerIdle {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.state = writerStreaming
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("sink: marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("sink: write event: %w", err)
	}
	return s.rc.Flush()
}

// WriteKeepAlive writes an SSE comment line, used by an idle timer to keep
// intermediaries from closing the connection during a quiet upstream.
func (s *Writer) WriteKeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerClosed {
		return nil
	}
	if s.state == writerIdle {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.state = writerStreaming
	}

	if _, err := fmt.Fprint(s.w, ": keep-alive\n\n"); err != nil {
		return fmt.Errorf("sink: write keep-alive: %w", err)
	}
	return s.rc.Flush()
}

// Close marks the writer closed. The HTTP response body itself is closed
// by the caller returning from its handler; end-of-stream is signaled to
// the client by that body close, not by a sentinel event.
func (s *Writer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = writerClosed
}

// HasStartedStreaming reports whether SSE output (an event or a keep-alive
// comment) has been written and the writer has not been closed. The
// HTTP adapter uses this to decide, on an orchestrator error, whether it
// can still write a JSON error body (nothing sent yet) or must simply let
// the response body close without one (SSE framing already began).
func (s *Writer) HasStartedStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == writerStreaming
}
