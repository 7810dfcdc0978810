package docstore

import (
	"context"
	"errors"

	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

// ScanRepository is the append-only scans table.
type ScanRepository struct {
	store *Store
}

func NewScanRepository(s *Store) *ScanRepository {
	return &ScanRepository{store: s}
}

// Append adds r to the end of the table.
func (r *ScanRepository) Append(ctx context.Context, rec scans.Record) error {
	return Update(ctx, r.store, TableScans, func(recs *[]scans.Record) error {
		*recs = append(*recs, rec)
		return nil
	})
}

// All returns every record in creation order. A missing table is empty.
func (r *ScanRepository) All(ctx context.Context) ([]scans.Record, error) {
	var recs []scans.Record
	if err := r.store.Read(ctx, TableScans, &recs); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []scans.Record{}, nil
		}
		return nil, err
	}
	if recs == nil {
		recs = []scans.Record{}
	}
	return recs, nil
}
