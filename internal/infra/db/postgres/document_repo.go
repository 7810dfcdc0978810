// Package postgres is the PostgreSQL backend for the document store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bryanwahyu/cyberguard/internal/infra/docstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	name       TEXT        PRIMARY KEY,
	body       TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// DocumentRepository keeps every docstore table as one row.
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates the documents table if needed.
func NewDocumentRepository(ctx context.Context, db *sql.DB) (*DocumentRepository, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, err
	}
	return &DocumentRepository{db: db}, nil
}

func (r *DocumentRepository) Init(ctx context.Context, table string, def []byte) error {
	const q = `
INSERT INTO documents (name, body, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO NOTHING;`
	_, err := r.db.ExecContext(ctx, q, table, string(def), time.Now().UTC())
	return err
}

func (r *DocumentRepository) Get(ctx context.Context, table string) ([]byte, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = $1`, table).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (r *DocumentRepository) Put(ctx context.Context, table string, data []byte) error {
	const q = `
INSERT INTO documents (name, body, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET
	body = EXCLUDED.body,
	updated_at = EXCLUDED.updated_at;`
	_, err := r.db.ExecContext(ctx, q, table, string(data), time.Now().UTC())
	return err
}

func (r *DocumentRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *DocumentRepository) Close() error { return r.db.Close() }
