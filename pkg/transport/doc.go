// Package transport defines the handler interface and middleware chain the
// HTTP adapter (pkg/transport/http) drives the orchestrator through.
//
// # Handler interface
//
// ResponseCreator is the single operation the proxy exposes: create a
// response for one ORS request, streaming events to a ResponseWriter. The
// orchestrator implements it; the HTTP adapter decodes requests into it.
//
// # Middleware
//
// The middleware chain wraps ResponseCreator with cross-cutting concerns:
// panic recovery, request ID assignment (X-Request-ID), and structured
// logging via log/slog. Custom middleware can be added the same way.
package transport
