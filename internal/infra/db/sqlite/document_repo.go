// Package sqlite is the embedded SQL backend for the document store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bryanwahyu/cyberguard/internal/infra/docstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// DocumentRepository keeps every docstore table as one row.
type DocumentRepository struct {
	db *sql.DB
}

// Open creates (or opens) the database file at path.
func Open(path string) (*DocumentRepository, error) {
	if path == "" {
		path = filepath.Join("database", "cyberguard.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &DocumentRepository{db: db}, nil
}

func (r *DocumentRepository) Init(ctx context.Context, table string, def []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, table, string(def), now())
	return err
}

func (r *DocumentRepository) Get(ctx context.Context, table string) ([]byte, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, table).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (r *DocumentRepository) Put(ctx context.Context, table string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			body=excluded.body,
			updated_at=excluded.updated_at
	`, table, string(data), now())
	return err
}

func (r *DocumentRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *DocumentRepository) Close() error { return r.db.Close() }

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }
