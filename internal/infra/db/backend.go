// Package db picks the document store backend named in the configuration.
package db

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bryanwahyu/cyberguard/internal/config"
	"github.com/bryanwahyu/cyberguard/internal/infra/db/mysql"
	"github.com/bryanwahyu/cyberguard/internal/infra/db/postgres"
	"github.com/bryanwahyu/cyberguard/internal/infra/db/sqlite"
	"github.com/bryanwahyu/cyberguard/internal/infra/docstore"
)

// OpenBackend opens storage.driver: file (default), sqlite, mysql or postgres.
func OpenBackend(ctx context.Context, cfg *config.Config) (docstore.Backend, error) {
	switch cfg.Storage.Driver {
	case "", "file":
		return docstore.NewFileBackend(cfg.Storage.Dir)
	case "sqlite":
		path := cfg.Storage.DSN
		if path == "" {
			path = filepath.Join(cfg.Storage.Dir, "cyberguard.db")
		}
		return sqlite.Open(path)
	case "mysql":
		conn, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		repo, err := mysql.NewDocumentRepository(ctx, conn)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("mysql schema: %w", err)
		}
		return repo, nil
	case "postgres":
		conn, err := postgres.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo, err := postgres.NewDocumentRepository(ctx, conn)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
