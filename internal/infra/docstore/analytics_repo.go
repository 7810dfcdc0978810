package docstore

import (
	"context"
	"errors"

	"github.com/bryanwahyu/cyberguard/internal/domain/analytics"
	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

// AnalyticsRepository is the analytics singleton document.
type AnalyticsRepository struct {
	store *Store
}

func NewAnalyticsRepository(s *Store) *AnalyticsRepository {
	return &AnalyticsRepository{store: s}
}

// RecordScan increments the counters for one scan as a single transaction.
func (r *AnalyticsRepository) RecordScan(ctx context.Context, t scans.Type, level scans.RiskLevel) error {
	return Update(ctx, r.store, TableAnalytics, func(s *analytics.State) error {
		s.Apply(t, level)
		return nil
	})
}

// Load returns the current state, or a zeroed one if the table is missing.
func (r *AnalyticsRepository) Load(ctx context.Context) (analytics.State, error) {
	s := analytics.NewState()
	if err := r.store.Read(ctx, TableAnalytics, &s); err != nil {
		if errors.Is(err, ErrNotFound) {
			return analytics.NewState(), nil
		}
		return analytics.State{}, err
	}
	if s.ThreatTypes == nil {
		s.ThreatTypes = map[scans.Type]int{}
	}
	if s.DailyStats == nil {
		s.DailyStats = []analytics.DailyStat{}
	}
	return s, nil
}
