package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/llumina/backend/internal/db"
)

// PostgresBlobStore persists blobs in a single two-column table, for setups
// where the library should live alongside other relational data.
type PostgresBlobStore struct {
	pool db.Pool
}

// NewPostgresBlobStore constructs a blob store backed by PostgreSQL.
func NewPostgresBlobStore(pool db.Pool) *PostgresBlobStore {
	return &PostgresBlobStore{pool: pool}
}

// EnsureSchema creates the blobs table when it does not exist yet.
func (p *PostgresBlobStore) EnsureSchema(ctx context.Context) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS library_blobs (
                key TEXT PRIMARY KEY,
                data BYTEA NOT NULL,
                updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `)
	if err != nil {
		return fmt.Errorf("ensure library_blobs table: %w", err)
	}
	return nil
}

// Get reads the blob stored under key.
func (p *PostgresBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var data []byte
	row := conn.QueryRow(ctx, `SELECT data FROM library_blobs WHERE key = $1`, key)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select blob %s: %w", key, err)
	}
	return data, nil
}

// Put upserts the blob stored under key.
func (p *PostgresBlobStore) Put(ctx context.Context, key string, data []byte) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO library_blobs (key, data, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
    `, key, data)
	if err != nil {
		return fmt.Errorf("upsert blob %s: %w", key, err)
	}
	return nil
}
