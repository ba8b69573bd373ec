package observability

import (
	"net/http"
	"time"
)

// StreamingMiddleware wraps the /v1/responses handler to hold the
// streaming-connections gauge for the handler's full lifetime. Every
// request this handler serves is an SSE stream (the proxy always streams),
// so the gauge is not gated on an Accept header the way a general-purpose
// HTTP metrics middleware would gate it.
//
// Per-request counting (orsproxy_requests_total, orsproxy_request_duration_seconds,
// labeled by model and outcome) happens in pkg/orchestrator, the first
// layer that knows the request's model and its upstream outcome.
func StreamingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		StreamingConnectionsActive.Inc()
		defer StreamingConnectionsActive.Dec()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush delegates to the underlying writer if it implements http.Flusher.
// This is essential for SSE streaming support.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter, enabling http.ResponseController
// and similar utilities to access the original writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
