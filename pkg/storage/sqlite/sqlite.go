// Package sqlite provides a pure-Go, local-file implementation of
// storage.Store, the default backend when no postgres DSN is configured.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mrorigo/ors-proxy/pkg/api"
	"github.com/mrorigo/ors-proxy/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	sequence_index INTEGER NOT NULL,
	item_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	FOREIGN KEY(conversation_id) REFERENCES conversations(id)
);

CREATE INDEX IF NOT EXISTS idx_items_seq ON items(conversation_id, sequence_index);
`

// Store is a sqlite-backed storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (creating if absent) the sqlite database at path and ensures
// its schema exists.
func New(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; one conn avoids SQLITE_BUSY.

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// LoadContext returns every item recorded for conversationID, in sequence
// order. An unknown conversation id returns an empty slice.
func (s *Store) LoadContext(ctx context.Context, conversationID string) ([]api.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM items WHERE conversation_id = ? ORDER BY sequence_index ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load context: %w", err)
	}
	defer rows.Close()

	var items []api.Item
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("sqlite: scan item: %w", err)
		}
		var item api.Item
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("sqlite: decode item payload: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveInteraction appends input and the output reconstructed from
// outputEvents to conversationID, creating the conversation row if this is
// its first reference.
func (s *Store) SaveInteraction(ctx context.Context, conversationID string, input []api.Item, outputEvents []api.StreamEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (id, created_at) VALUES (?, ?)`,
		conversationID, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("sqlite: ensure conversation: %w", err)
	}

	var nextSeq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE conversation_id = ?`, conversationID,
	).Scan(&nextSeq); err != nil {
		return fmt.Errorf("sqlite: count items: %w", err)
	}

	insert := func(item api.Item) error {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("sqlite: marshal item: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items (conversation_id, sequence_index, item_type, payload) VALUES (?, ?, ?, ?)`,
			conversationID, nextSeq, string(item.Type), string(payload),
		); err != nil {
			return fmt.Errorf("sqlite: insert item: %w", err)
		}
		nextSeq++
		return nil
	}

	for _, item := range input {
		if err := insert(item); err != nil {
			return err
		}
	}
	for _, item := range storage.ReconstructOutputItems(outputEvents) {
		if err := insert(item); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
