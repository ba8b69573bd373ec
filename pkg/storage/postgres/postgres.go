// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and JSONB for item payload storage.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mrorigo/ors-proxy/pkg/api"
	"github.com/mrorigo/ors-proxy/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// LoadContext returns every item recorded for conversationID, in sequence
// order. An unknown conversation id returns an empty slice.
func (s *Store) LoadContext(ctx context.Context, conversationID string) ([]api.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM items WHERE conversation_id = $1 ORDER BY sequence_index ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading context: %w", err)
	}
	defer rows.Close()

	var items []api.Item
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		var item api.Item
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("decoding item payload: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveInteraction appends input and the output reconstructed from
// outputEvents to conversationID, creating the conversation row if this is
// its first reference.
func (s *Store) SaveInteraction(ctx context.Context, conversationID string, input []api.Item, outputEvents []api.StreamEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversations (id, created_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		conversationID, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("ensuring conversation: %w", err)
	}

	var nextSeq int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM items WHERE conversation_id = $1`, conversationID,
	).Scan(&nextSeq); err != nil {
		return fmt.Errorf("counting items: %w", err)
	}

	insert := func(item api.Item) error {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshaling item: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO items (conversation_id, sequence_index, item_type, payload) VALUES ($1, $2, $3, $4)`,
			conversationID, nextSeq, string(item.Type), payload,
		); err != nil {
			return fmt.Errorf("inserting item: %w", err)
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

	return tx.Commit(ctx)
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
