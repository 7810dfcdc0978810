package analytics

import (
	"context"

	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

// Repository port for the analytics singleton. RecordScan must be atomic per process.
type Repository interface {
	RecordScan(ctx context.Context, t scans.Type, level scans.RiskLevel) error
	Load(ctx context.Context) (State, error)
}
