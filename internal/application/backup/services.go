// Package backup copies every document table to object storage.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/bryanwahyu/cyberguard/internal/application"
	"github.com/bryanwahyu/cyberguard/internal/infra/docstore"
)

// TableReader reads a table's stored bytes.
type TableReader interface {
	ReadRaw(ctx context.Context, table string) ([]byte, error)
}

// Uploader stores data under key.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

type Service struct {
	Tables   TableReader
	Uploader Uploader
	Clock    application.Clock
	Prefix   string
}

// Run uploads every known table once and returns the keys written. Missing tables are
// skipped; other failures are joined and the remaining tables are still attempted.
func (s *Service) Run(ctx context.Context) ([]string, error) {
	stamp := s.Clock.Now().UTC().Format("20060102T150405Z")
	runID := uuid.NewString()

	var keys []string
	var errs []error
	for _, table := range docstore.Tables {
		data, err := s.Tables.ReadRaw(ctx, table)
		if errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", table, err))
			continue
		}
		key := path.Join(s.Prefix, stamp, table+".json")
		if _, err := s.Uploader.Upload(ctx, key, data); err != nil {
			errs = append(errs, fmt.Errorf("upload %s: %w", table, err))
			continue
		}
		keys = append(keys, key)
	}

	err := errors.Join(errs...)
	if err != nil {
		slog.Error("backup: run failed", "run", runID, "uploaded", len(keys), "error", err)
	} else {
		slog.Info("backup: run complete", "run", runID, "uploaded", len(keys))
	}
	return keys, err
}

// Schedule registers Run on a new cron using spec (e.g. "@every 6h"). The caller starts
// and stops the returned cron.
func (s *Service) Schedule(spec string, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, _ = s.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("backup schedule %q: %w", spec, err)
	}
	return c, nil
}
