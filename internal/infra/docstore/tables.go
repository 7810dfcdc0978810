package docstore

import (
	"context"

	"github.com/bryanwahyu/cyberguard/internal/domain/analytics"
)

// Table names.
const (
	TableUsers     = "users"
	TableScans     = "scans"
	TableThreats   = "threats"
	TableAnalytics = "analytics"
)

// Tables lists every table the service owns.
var Tables = []string{TableUsers, TableScans, TableThreats, TableAnalytics}

// InitDefaults creates any missing table with its documented default shape.
func InitDefaults(ctx context.Context, s *Store) error {
	defaults := map[string]any{
		TableUsers:     []any{},
		TableScans:     []any{},
		TableThreats:   []any{},
		TableAnalytics: analytics.NewState(),
	}
	for _, t := range Tables {
		if err := s.Initialize(ctx, t, defaults[t]); err != nil {
			return err
		}
	}
	return nil
}
