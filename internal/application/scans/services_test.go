package scans

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/cyberguard/internal/application"
	domain "github.com/bryanwahyu/cyberguard/internal/domain/scans"
	"github.com/bryanwahyu/cyberguard/internal/infra/docstore"
)

type stubAssessor struct {
	level domain.RiskLevel
	err   error
}

func (s stubAssessor) AssessURL(context.Context, string) (domain.RiskVerdict, error) {
	return domain.RiskVerdict{RiskLevel: s.level, Score: 50}, s.err
}

func (s stubAssessor) AssessMessage(context.Context, string, bool) (domain.RiskVerdict, error) {
	return domain.RiskVerdict{RiskLevel: s.level, Score: 50}, s.err
}

func (s stubAssessor) AssessPassword(context.Context, string) (domain.PasswordAssessment, error) {
	return domain.PasswordAssessment{Strength: domain.StrengthStrong, Score: 95, Feedback: []string{"nice"}, CrackTime: "centuries"}, s.err
}

func (s stubAssessor) AssessFile(context.Context, domain.FileInfo) (domain.RiskVerdict, error) {
	return domain.RiskVerdict{RiskLevel: s.level, Score: 50}, s.err
}

type countingObserver struct {
	mu       sync.Mutex
	ingested int
	failed   []string
}

func (o *countingObserver) ScanIngested(domain.Type, domain.RiskLevel) {
	o.mu.Lock()
	o.ingested++
	o.mu.Unlock()
}

func (o *countingObserver) PersistFailed(table string) {
	o.mu.Lock()
	o.failed = append(o.failed, table)
	o.mu.Unlock()
}

type failingRepo struct{}

func (failingRepo) Append(context.Context, domain.Record) error { return errors.New("disk full") }
func (failingRepo) All(context.Context) ([]domain.Record, error) {
	return nil, errors.New("disk full")
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, a stubAssessor) (*Service, *docstore.Store) {
	t.Helper()
	b, err := docstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := docstore.New(b)
	require.NoError(t, docstore.InitDefaults(context.Background(), store))

	svc := &Service{
		Repo:      docstore.NewScanRepository(store),
		Analytics: docstore.NewAnalyticsRepository(store),
		Assessors: domain.Assessors{URL: a, Message: a, Password: a, File: a},
		IDs:       domain.NewIDGenerator(0),
		Clock:     application.NewManualClock(testNow),
		Observer:  &countingObserver{},
	}
	return svc, store
}

func TestScanPasswordIsRedacted(t *testing.T) {
	svc, store := newTestService(t, stubAssessor{level: domain.RiskSafe})
	ctx := context.Background()

	got, err := svc.ScanPassword(ctx, "correct horse battery staple", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StrengthStrong, got.Strength)
	assert.Equal(t, "centuries", got.CrackTime)

	raw, err := store.ReadRaw(ctx, docstore.TableScans)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct horse")

	var stored []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	assert.JSONEq(t, `"[PROTECTED]"`, string(stored[0]["input"]))
	assert.JSONEq(t, `{"strength":"strong","score":95}`, string(stored[0]["result"]))

	st, err := svc.Analytics.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalScans)
	assert.Equal(t, 0, st.ScamsPrevented)
	assert.Equal(t, 1, st.ThreatTypes[domain.TypePassword])
}

func TestScanMessageTruncatesInput(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: domain.RiskHigh})
	ctx := context.Background()

	_, err := svc.ScanMessage(ctx, strings.Repeat("x", 5000), "", false)
	require.NoError(t, err)

	recs, err := svc.Repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Input, domain.MaxMessageInput)
	assert.Equal(t, GuestUser, recs[0].UserID)
	assert.True(t, testNow.Equal(recs[0].Timestamp))

	st, err := svc.Analytics.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ScamsPrevented)
}

func TestScanValidation(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: domain.RiskSafe})
	ctx := context.Background()

	var verr *domain.ValidationError
	_, err := svc.ScanURL(ctx, "", "")
	assert.ErrorAs(t, err, &verr)
	_, err = svc.ScanMessage(ctx, "", "", true)
	assert.ErrorAs(t, err, &verr)
	_, err = svc.ScanPassword(ctx, "", "")
	assert.ErrorAs(t, err, &verr)
	_, err = svc.ScanPassword(ctx, strings.Repeat("p", MaxPasswordLength+1), "")
	assert.ErrorAs(t, err, &verr)
	_, err = svc.ScanFile(ctx, domain.FileInfo{}, "")
	assert.ErrorAs(t, err, &verr)

	_, err = svc.ScanPassword(ctx, strings.Repeat("p", MaxPasswordLength), "")
	assert.NoError(t, err)
}

func TestAssessorFailureIsNotPersisted(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{err: errors.New("model offline")})
	ctx := context.Background()

	_, err := svc.ScanURL(ctx, "http://example.com", "bob")
	require.ErrorIs(t, err, domain.ErrAssessment)

	recs, err := svc.Repo.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestUnknownRiskLevelRejected(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: "apocalyptic"})

	_, err := svc.ScanFile(context.Background(), domain.FileInfo{Name: "a.exe"}, "")
	assert.ErrorIs(t, err, domain.ErrAssessment)
}

func TestPersistenceFailureStillReturnsVerdict(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: domain.RiskCritical})
	svc.Repo = failingRepo{}
	obs := svc.Observer.(*countingObserver)

	v, err := svc.ScanURL(context.Background(), "http://phish.test", "carol")
	require.NoError(t, err)
	assert.Equal(t, domain.RiskCritical, v.RiskLevel)

	assert.Equal(t, []string{"scans"}, obs.failed)
	st, err := svc.Analytics.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalScans)
}

func TestIngestReturnsJoinedErrors(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: domain.RiskLow})
	svc.Repo = failingRepo{}

	rec, err := svc.Ingest(context.Background(), IngestCommand{
		Type:   domain.TypeURL,
		Input:  "http://a.test",
		Result: domain.Result{Risk: &domain.RiskVerdict{RiskLevel: domain.RiskLow}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append scan")
	assert.NotZero(t, rec.ID)
}

func TestIngestRejectsMismatchedVariant(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: domain.RiskLow})

	_, err := svc.Ingest(context.Background(), IngestCommand{Type: domain.TypePassword, Result: domain.Result{Risk: &domain.RiskVerdict{}}})
	assert.ErrorIs(t, err, domain.ErrAssessment)
	_, err = svc.Ingest(context.Background(), IngestCommand{Type: domain.TypeURL})
	assert.ErrorIs(t, err, domain.ErrAssessment)
}

func TestIngestIgnoresCancelledContext(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: domain.RiskSafe})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ScanURL(ctx, "http://ok.test", "")
	require.NoError(t, err)

	recs, err := svc.Repo.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestConcurrentScansKeepCountersConsistent(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: domain.RiskMedium})
	ctx := context.Background()

	const n = 60
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.ScanURL(ctx, "http://x.test", "dave")
			return err
		})
	}
	require.NoError(t, g.Wait())

	recs, err := svc.Repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, recs, n)
	ids := map[domain.ScanID]struct{}{}
	for _, r := range recs {
		ids[r.ID] = struct{}{}
	}
	assert.Len(t, ids, n)

	st, err := svc.Analytics.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, st.TotalScans)
	assert.Equal(t, n, st.ScamsPrevented)
	assert.Equal(t, n, st.ThreatTypes[domain.TypeURL])
}

func TestUserScore(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: domain.RiskSafe})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.ScanURL(ctx, "http://fine.test", "erin")
		require.NoError(t, err)
	}
	_, err := svc.ScanURL(ctx, "http://fine.test", "someone-else")
	require.NoError(t, err)

	got, err := svc.UserScore(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalScans)
	assert.Equal(t, 3, got.SafeActions)
	assert.Equal(t, 100, got.Score)

	none, err := svc.UserScore(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, none.Score)
	assert.Equal(t, "Beginner", none.Level)
}

func TestLastID(t *testing.T) {
	svc, _ := newTestService(t, stubAssessor{level: domain.RiskSafe})
	ctx := context.Background()

	last, err := LastID(ctx, svc.Repo)
	require.NoError(t, err)
	assert.Zero(t, last)

	_, err = svc.ScanURL(ctx, "http://a.test", "")
	require.NoError(t, err)
	last, err = LastID(ctx, svc.Repo)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanID(testNow.UnixMilli()), last)
}
