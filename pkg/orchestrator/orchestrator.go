// Package orchestrator implements the per-request glue that drives one
// ORS request through conversation-history loading, Legacy translation,
// the upstream call, the streaming transcode pipeline, and persistence
// (component G).
package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mrorigo/ors-proxy/pkg/api"
	"github.com/mrorigo/ors-proxy/pkg/codec"
	"github.com/mrorigo/ors-proxy/pkg/legacy"
	"github.com/mrorigo/ors-proxy/pkg/observability"
	"github.com/mrorigo/ors-proxy/pkg/storage"
	"github.com/mrorigo/ors-proxy/pkg/transcoder"
	"github.com/mrorigo/ors-proxy/pkg/translate"
)

// EventWriter is the subset of pkg/sink.Writer the orchestrator needs:
// one SSE frame per ORS event.
type EventWriter interface {
	WriteEvent(ctx context.Context, event api.StreamEvent) error
}

// UpstreamStreamer opens a streaming Legacy chat-completions request. It is
// satisfied by *pkg/upstream.Client; an interface here keeps the
// orchestrator testable without a real HTTP round trip.
type UpstreamStreamer interface {
	Stream(ctx context.Context, req legacy.ChatCompletionRequest) (io.ReadCloser, error)
}

// Orchestrator implements the single create-response operation the proxy
// exposes: load history, translate, call upstream, transcode, persist.
type Orchestrator struct {
	store    storage.Store
	upstream UpstreamStreamer
	logger   *slog.Logger
}

// New creates an Orchestrator. store and upstream must not be nil. A nil
// logger falls back to slog.Default().
func New(store storage.Store, client UpstreamStreamer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{store: store, upstream: client, logger: logger}
}

// CreateResponse implements spec §4.G: derive the conversation id, load and
// augment history, translate to Legacy, stream the upstream response
// through the transcoder to w, then persist the turn on clean completion.
func (o *Orchestrator) CreateResponse(ctx context.Context, req *api.CreateResponseRequest, w EventWriter) error {
	if apiErr := api.ValidateRequest(req); apiErr != nil {
		return apiErr
	}

	reqStart := time.Now()
	defer func() {
		observability.RequestDuration.WithLabelValues(req.Model).Observe(time.Since(reqStart).Seconds())
	}()

	// The id a client passes back as previous_response_id is the response
	// id from response.created, which also doubles as the store's
	// conversation key: a continued conversation's transcoder is built to
	// report that same id on every turn, rather than minting a fresh one,
	// so the client never needs to track a second identifier.
	var tc *transcoder.Transcoder
	if req.PreviousResponseID != "" {
		tc = transcoder.NewWithResponseID(req.PreviousResponseID)
	} else {
		tc = transcoder.New()
	}
	conversationID := tc.ResponseID()

	var history []api.Item
	if req.PreviousResponseID != "" {
		loaded, err := o.store.LoadContext(ctx, conversationID)
		if err != nil {
			return api.NewServerError("loading conversation history: " + err.Error())
		}
		history = loaded
	}

	augmented := make([]api.Item, 0, len(history)+len(req.Input))
	augmented = append(augmented, history...)
	augmented = append(augmented, req.Input...)

	messages, err := translate.ToLegacyMessages(o.logger, augmented)
	if err != nil {
		return api.NewInvalidRequestError(err.Error())
	}

	start := time.Now()
	body, err := o.upstream.Stream(ctx, legacy.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		observability.RequestsTotal.WithLabelValues(req.Model, "upstream_error").Inc()
		return err
	}
	defer body.Close()

	events, cleanEnd, err := o.pump(ctx, tc, body, w)
	observability.UpstreamLatency.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.RequestsTotal.WithLabelValues(req.Model, "stream_error").Inc()
		return err
	}
	observability.RequestsTotal.WithLabelValues(req.Model, "ok").Inc()

	if cleanEnd && ctx.Err() == nil {
		if saveErr := o.store.SaveInteraction(ctx, conversationID, req.Input, events); saveErr != nil {
			o.logger.Error("orchestrator: persisting interaction failed", "conversation_id", conversationID, "error", saveErr)
		}
	}

	return nil
}

// pump runs the A(codec)->B(legacy.ParseLine)->D(transcoder)->E(sink) pipeline
// over body, writing every emitted event to w and accumulating them for
// persistence. cleanEnd reports whether the upstream stream ended via
// [DONE] or plain EOF, as opposed to client-triggered cancellation (in
// which case no persistence should occur, per spec §5).
func (o *Orchestrator) pump(ctx context.Context, tc *transcoder.Transcoder, body io.Reader, w EventWriter) (events []api.StreamEvent, cleanEnd bool, err error) {
	dec := codec.NewDecoder()
	buf := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return events, false, nil
		}

		n, readErr := body.Read(buf)
		for _, line := range dec.Decode(buf[:n]) {
			chunk, done := legacy.ParseLine(o.logger, line)
			if done {
				return events, true, nil
			}
			if chunk == nil {
				continue
			}
			for _, ev := range tc.Process(*chunk) {
				if writeErr := w.WriteEvent(ctx, ev); writeErr != nil {
					return events, false, writeErr
				}
				events = append(events, ev)
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				return events, true, nil
			}
			return events, false, api.NewUpstreamError("upstream stream interrupted: " + readErr.Error())
		}
	}
}
