package scans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bryanwahyu/cyberguard/internal/application"
	domanalytics "github.com/bryanwahyu/cyberguard/internal/domain/analytics"
	domain "github.com/bryanwahyu/cyberguard/internal/domain/scans"
	"github.com/bryanwahyu/cyberguard/internal/domain/trust"
)

// GuestUser is recorded when the caller gives no identity.
const GuestUser = "guest"

// MaxPasswordLength is the longest password accepted for a strength check.
const MaxPasswordLength = 128

// Observer is told about every ingested scan and every failed write. May be nil.
type Observer interface {
	ScanIngested(t domain.Type, level domain.RiskLevel)
	PersistFailed(table string)
}

// Service implements the scan use-cases. It is safe for concurrent use.
type Service struct {
	Repo      domain.Repository
	Analytics domanalytics.Repository
	Assessors domain.Assessors
	IDs       *domain.IDGenerator
	Clock     application.Clock
	Observer  Observer
}

//
// ==== USE CASES ====
//

// ScanURL assesses a sanitized URL and records the outcome.
func (s *Service) ScanURL(ctx context.Context, url, userID string) (domain.RiskVerdict, error) {
	if url == "" {
		return domain.RiskVerdict{}, domain.Invalid("Invalid URL provided")
	}
	v, err := s.Assessors.URL.AssessURL(ctx, url)
	if err = checkVerdict(v, err); err != nil {
		return domain.RiskVerdict{}, err
	}
	s.ingestBestEffort(ctx, IngestCommand{Type: domain.TypeURL, Input: url, Result: domain.Result{Risk: &v}, UserID: userID})
	return v, nil
}

// ScanMessage assesses a sanitized message and records the first 200 characters of it.
func (s *Service) ScanMessage(ctx context.Context, message, userID string, simple bool) (domain.RiskVerdict, error) {
	if message == "" {
		return domain.RiskVerdict{}, domain.Invalid("Invalid message provided")
	}
	v, err := s.Assessors.Message.AssessMessage(ctx, message, simple)
	if err = checkVerdict(v, err); err != nil {
		return domain.RiskVerdict{}, err
	}
	s.ingestBestEffort(ctx, IngestCommand{Type: domain.TypeMessage, Input: message, Result: domain.Result{Risk: &v}, UserID: userID})
	return v, nil
}

// ScanPassword rates a raw password. Only the strength and score are recorded.
func (s *Service) ScanPassword(ctx context.Context, password, userID string) (domain.PasswordAssessment, error) {
	if password == "" || len([]rune(password)) > MaxPasswordLength {
		return domain.PasswordAssessment{}, domain.Invalid("Invalid password")
	}
	a, err := s.Assessors.Password.AssessPassword(ctx, password)
	if err != nil {
		return domain.PasswordAssessment{}, fmt.Errorf("%w: %v", domain.ErrAssessment, err)
	}
	v := a.Verdict()
	s.ingestBestEffort(ctx, IngestCommand{Type: domain.TypePassword, Result: domain.Result{Password: &v}, UserID: userID})
	return a, nil
}

// ScanFile assesses file metadata and records the file name.
func (s *Service) ScanFile(ctx context.Context, f domain.FileInfo, userID string) (domain.RiskVerdict, error) {
	if f.Name == "" {
		return domain.RiskVerdict{}, domain.Invalid("Invalid file information")
	}
	v, err := s.Assessors.File.AssessFile(ctx, f)
	if err = checkVerdict(v, err); err != nil {
		return domain.RiskVerdict{}, err
	}
	s.ingestBestEffort(ctx, IngestCommand{Type: domain.TypeFile, Input: f.Name, Result: domain.Result{Risk: &v}, UserID: userID})
	return v, nil
}

// UserScore computes the trust score of userID from its stored scans.
func (s *Service) UserScore(ctx context.Context, userID string) (trust.Score, error) {
	recs, err := s.Repo.All(ctx)
	if err != nil {
		return trust.Score{}, err
	}
	var mine []domain.Record
	for _, r := range recs {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	return trust.Calculate(mine), nil
}

// checkVerdict rejects assessor failures and levels outside the enumeration.
func checkVerdict(v domain.RiskVerdict, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAssessment, err)
	}
	if !v.RiskLevel.Valid() {
		return fmt.Errorf("%w: unknown risk level %q", domain.ErrAssessment, v.RiskLevel)
	}
	return nil
}

//
// ==== INGESTION ====
//

// IngestCommand is one assessed scan ready to be recorded. Input must already be sanitized.
type IngestCommand struct {
	Type   domain.Type
	Input  string
	Result domain.Result
	UserID string
}

// Ingest builds the redacted record, appends it to the scans table and updates analytics.
// The two writes are independent; both are attempted and their errors joined. Writes run
// detached from ctx cancellation so a client hanging up never aborts them halfway.
func (s *Service) Ingest(ctx context.Context, cmd IngestCommand) (domain.Record, error) {
	ctx = context.WithoutCancel(ctx)

	res := cmd.Result
	if cmd.Type == domain.TypePassword {
		if res.Password == nil {
			return domain.Record{}, fmt.Errorf("%w: password scan without strength", domain.ErrAssessment)
		}
		res = domain.Result{Password: &domain.PasswordVerdict{Strength: res.Password.Strength, Score: res.Password.Score}}
	} else if res.Risk == nil {
		return domain.Record{}, fmt.Errorf("%w: %s scan without risk verdict", domain.ErrAssessment, cmd.Type)
	}

	now := s.Clock.Now().UTC().Truncate(time.Millisecond)
	rec := domain.Record{
		ID:        s.IDs.Next(now),
		Type:      cmd.Type,
		Input:     domain.RedactInput(cmd.Type, cmd.Input),
		Result:    res,
		UserID:    userOrGuest(cmd.UserID),
		Timestamp: now,
	}

	var errs []error
	if err := s.Repo.Append(ctx, rec); err != nil {
		errs = append(errs, fmt.Errorf("append scan: %w", err))
		s.persistFailed("scans")
	}
	if err := s.Analytics.RecordScan(ctx, rec.Type, rec.Result.Level()); err != nil {
		errs = append(errs, fmt.Errorf("record analytics: %w", err))
		s.persistFailed("analytics")
	}
	if s.Observer != nil {
		s.Observer.ScanIngested(rec.Type, rec.Result.Level())
	}
	return rec, errors.Join(errs...)
}

// ingestBestEffort records the scan and only logs failures; the caller still gets its verdict.
func (s *Service) ingestBestEffort(ctx context.Context, cmd IngestCommand) {
	if rec, err := s.Ingest(ctx, cmd); err != nil {
		slog.Error("scans: persistence failed", "type", cmd.Type, "id", rec.ID, "error", err)
	}
}

func (s *Service) persistFailed(table string) {
	if s.Observer != nil {
		s.Observer.PersistFailed(table)
	}
}

func userOrGuest(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return GuestUser
	}
	return id
}

// LastID returns the largest stored id, used to seed the id generator at startup.
func LastID(ctx context.Context, repo domain.Repository) (domain.ScanID, error) {
	recs, err := repo.All(ctx)
	if err != nil {
		return 0, err
	}
	var last domain.ScanID
	for _, r := range recs {
		last = max(last, r.ID)
	}
	return last, nil
}
