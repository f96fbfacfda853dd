// internal/repository/postgres/kv_store.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

const DefaultKVTable = "kv_entries"

// KVStore keeps entitlement data as opaque values in a single key/value table.
type KVStore struct {
	db    *DB
	table string
}

// NewKVStore creates a store backed by table, which is quoted as an identifier.
func NewKVStore(db *DB, table string) *KVStore {
	if table == "" {
		table = DefaultKVTable
	}
	return &KVStore{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureSchema creates the backing table if it does not exist.
func (r *KVStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, r.table)

	if _, err := r.db.Pool().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

func (r *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, r.table)

	var value []byte
	err := r.db.Pool().QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get kv entry: %w", err)
	}
	return value, true, nil
}

func (r *KVStore) Set(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`, r.table)

	if _, err := r.db.Pool().Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}

func (r *KVStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, r.table)

	if _, err := r.db.Pool().Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete kv entry: %w", err)
	}
	return nil
}
