package storage

import (
	"context"

	"github.com/mrorigo/ors-proxy/pkg/api"
)

// Store persists conversation history: an ordered, append-only list of ORS
// items per conversation id. Conversations are created on first reference.
type Store interface {
	// LoadContext returns every item recorded for conversationID, in
	// sequence order. An unknown conversation id returns an empty slice,
	// not an error.
	LoadContext(ctx context.Context, conversationID string) ([]api.Item, error)

	// SaveInteraction appends input to the conversation, followed by the
	// output items reconstructed from outputEvents, in a single
	// transaction. It creates the conversation row if this is its first
	// reference.
	SaveInteraction(ctx context.Context, conversationID string, input []api.Item, outputEvents []api.StreamEvent) error

	// Close releases underlying resources (connection pool, file handle).
	Close() error
}
