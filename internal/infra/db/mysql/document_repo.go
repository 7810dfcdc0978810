package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bryanwahyu/cyberguard/internal/infra/docstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
  name       VARCHAR(64) NOT NULL PRIMARY KEY,
  body       LONGTEXT    NOT NULL,
  updated_at DATETIME(3) NOT NULL
)`

// DocumentRepository stores docstore tables as rows of the documents table.
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
	const q = `INSERT IGNORE INTO documents (name, body, updated_at) VALUES (?,?,?)`
	_, err := r.db.ExecContext(ctx, q, table, string(def), time.Now().UTC())
	return err
}

func (r *DocumentRepository) Get(ctx context.Context, table string) ([]byte, error) {
	const q = `SELECT body FROM documents WHERE name=? LIMIT 1`
	var body string
	if err := r.db.QueryRowContext(ctx, q, table).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docstore.ErrNotFound
		}
		return nil, err
	}
	return []byte(body), nil
}

// Put upserts the whole document in one statement.
func (r *DocumentRepository) Put(ctx context.Context, table string, data []byte) error {
	const q = `
INSERT INTO documents (name, body, updated_at)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE
 body=VALUES(body), updated_at=VALUES(updated_at);`
	_, err := r.db.ExecContext(ctx, q, table, string(data), time.Now().UTC())
	return err
}

func (r *DocumentRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *DocumentRepository) Close() error { return r.db.Close() }
