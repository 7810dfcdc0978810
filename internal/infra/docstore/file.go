package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// FileBackend keeps each table in <dir>/<table>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		dir = "database"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(table string) string {
	return filepath.Join(b.dir, table+".json")
}

func (b *FileBackend) Init(_ context.Context, table string, def []byte) error {
	_, err := os.Stat(b.path(table))
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return renameio.WriteFile(b.path(table), def, 0o644)
}

func (b *FileBackend) Get(_ context.Context, table string) ([]byte, error) {
	data, err := os.ReadFile(b.path(table))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put writes to a temp file in the same directory, fsyncs it and renames it over the table.
func (b *FileBackend) Put(_ context.Context, table string, data []byte) error {
	return renameio.WriteFile(b.path(table), data, 0o644)
}

func (b *FileBackend) Ping(context.Context) error {
	_, err := os.Stat(b.dir)
	return err
}

func (b *FileBackend) Close() error { return nil }
