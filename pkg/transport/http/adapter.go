package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrorigo/ors-proxy/pkg/api"
	"github.com/mrorigo/ors-proxy/pkg/sink"
	"github.com/mrorigo/ors-proxy/pkg/transport"
)

// Adapter serves the proxy's single operation over HTTP: POST /v1/responses,
// plus a health check and a Prometheus metrics endpoint.
type Adapter struct {
	creator transport.ResponseCreator
	mux     *http.ServeMux
	config  Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr            string
	MaxBodySize     int64
	KeepAlive       time.Duration // interval between SSE keep-alive comments; 0 disables
	ShutdownTimeout int           // seconds
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		MaxBodySize:     10 << 20, // 10 MB
		KeepAlive:       15 * time.Second,
		ShutdownTimeout: 30,
	}
}

// NewAdapter creates an HTTP adapter wrapping creator with the given
// middleware, in order (the first middleware is outermost).
func NewAdapter(creator transport.ResponseCreator, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		creator = transport.Chain(middlewares...)(creator)
	}

	a := &Adapter{
		creator: creator,
		mux:     http.NewServeMux(),
		config:  cfg,
	}

	a.mux.HandleFunc("POST /v1/responses", a.handleCreateResponse)
	a.mux.HandleFunc("GET /health", handleHealth)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// httpRequestIDMiddleware is HTTP-level middleware that propagates the
// X-Request-ID header. If present in the request, it is forwarded to
// the response. After the handler runs, it checks the context for a
// request ID (set by the transport-level RequestID middleware) and adds
// it to the response headers if not already set.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

func (w *requestIDResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}

// handleCreateResponse handles POST /v1/responses. The proxy always streams
// the response as SSE; store and stream fields on the request are accepted
// for client compatibility but do not change that behavior.
func (a *Adapter) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.CreateResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError(fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	ctx := r.Context()
	rw := sink.NewWriter(w)
	defer rw.Close()

	stop := a.startKeepAlive(ctx, rw)
	defer stop()

	if err := a.creator.CreateResponse(ctx, &req, rw); err != nil {
		a.writeHandlerError(w, rw, err)
	}
}

// startKeepAlive spawns a goroutine that writes an SSE comment on an idle
// timer so intermediaries don't time out a quiet connection. It returns a
// function that stops the ticker; callers must call it once the handler
// returns.
func (a *Adapter) startKeepAlive(ctx context.Context, rw *sink.Writer) func() {
	if a.config.KeepAlive <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(a.config.KeepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rw.WriteKeepAlive()
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// writeHandlerError writes an error response from the handler. If SSE
// framing has already begun, there is no way to retrofit a JSON error body;
// the response body is simply allowed to close without one. Otherwise it
// writes a standard JSON error response.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, rw *sink.Writer, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError(err.Error())
	}

	if rw.HasStartedStreaming() {
		return
	}

	transport.WriteAPIError(w, apiErr)
}
