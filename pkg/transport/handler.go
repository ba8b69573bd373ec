package transport

import (
	"context"

	"github.com/mrorigo/ors-proxy/pkg/api"
)

// ResponseCreator handles the proxy's single operation: translate, forward,
// and stream back one ORS request. pkg/orchestrator.Orchestrator implements
// it.
type ResponseCreator interface {
	CreateResponse(ctx context.Context, req *api.CreateResponseRequest, w ResponseWriter) error
}

// ResponseCreatorFunc is an adapter that allows using an ordinary function
// as a ResponseCreator.
type ResponseCreatorFunc func(ctx context.Context, req *api.CreateResponseRequest, w ResponseWriter) error

// CreateResponse calls f(ctx, req, w).
func (f ResponseCreatorFunc) CreateResponse(ctx context.Context, req *api.CreateResponseRequest, w ResponseWriter) error {
	return f(ctx, req, w)
}

// ResponseWriter streams ORS events to the client. The proxy always
// streams (spec §6), so, unlike a general-purpose responses API, there is
// no separate non-streaming "write complete response" mode.
type ResponseWriter interface {
	// WriteEvent sends a single streaming event.
	WriteEvent(ctx context.Context, event api.StreamEvent) error

	// HasStartedStreaming reports whether SSE output has been written yet.
	// The HTTP adapter uses this to decide, on error, whether a JSON error
	// body can still be written.
	HasStartedStreaming() bool
}
