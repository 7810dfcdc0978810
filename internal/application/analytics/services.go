package analytics

import (
	"context"

	"github.com/bryanwahyu/cyberguard/internal/application"
	domain "github.com/bryanwahyu/cyberguard/internal/domain/analytics"
	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

// Service serves the read side: the public analytics snapshot and the admin summary.
type Service struct {
	Repo  domain.Repository
	Scans scans.Repository
	Clock application.Clock
}

// Snapshot returns the counters plus today's prevented scams and the 10 latest scans.
func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	st, err := s.Repo.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	recs, err := s.Scans.All(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.NewSnapshot(st, recs, s.Clock.Now()), nil
}

// AdminSummary walks every stored scan; cost grows linearly with the table.
func (s *Service) AdminSummary(ctx context.Context) (domain.AdminSummary, error) {
	recs, err := s.Scans.All(ctx)
	if err != nil {
		return domain.AdminSummary{}, err
	}
	st, err := s.Repo.Load(ctx)
	if err != nil {
		return domain.AdminSummary{}, err
	}
	return domain.Summarize(st, recs), nil
}
