package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/cyberguard/internal/application"
	appanalytics "github.com/bryanwahyu/cyberguard/internal/application/analytics"
	appscans "github.com/bryanwahyu/cyberguard/internal/application/scans"
	domain "github.com/bryanwahyu/cyberguard/internal/domain/scans"
	"github.com/bryanwahyu/cyberguard/internal/domain/threats"
	"github.com/bryanwahyu/cyberguard/internal/infra/assess"
	"github.com/bryanwahyu/cyberguard/internal/infra/docstore"
	"github.com/bryanwahyu/cyberguard/internal/middleware"
)

type testServer struct {
	handler http.Handler
	store   *docstore.Store
	dir     string
	metrics *middleware.Metrics
}

type brokenURL struct{}

func (brokenURL) AssessURL(context.Context, string) (domain.RiskVerdict, error) {
	return domain.RiskVerdict{}, errors.New("/secret/path: model offline")
}

func newTestServer(t *testing.T, limit int, adminKeys []string, assessors domain.Assessors) *testServer {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	b, err := docstore.NewFileBackend(dir)
	require.NoError(t, err)
	store := docstore.New(b)
	require.NoError(t, docstore.InitDefaults(ctx, store))

	clock := application.NewManualClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	scanRepo := docstore.NewScanRepository(store)
	analyticsRepo := docstore.NewAnalyticsRepository(store)
	metrics := middleware.NewMetrics()
	limiter := middleware.NewSlidingWindowLimiter(limit, middleware.DefaultRateWindow)
	limiter.Now = clock.Now
	limiter.OnReject = metrics.RateLimited

	h := NewRouter(Deps{
		Scans: &appscans.Service{
			Repo:      scanRepo,
			Analytics: analyticsRepo,
			Assessors: assessors,
			IDs:       domain.NewIDGenerator(0),
			Clock:     clock,
			Observer:  metrics,
		},
		Analytics: &appanalytics.Service{Repo: analyticsRepo, Scans: scanRepo, Clock: clock},
		Threats:   threats.NewSource(rand.New(rand.NewSource(1)), threats.DefaultFeedSize),
		Limiter:   limiter,
		Metrics:   metrics,
		Ready:     map[string]middleware.HealthChecker{"store": &middleware.StoreHealthChecker{Store: store}},
		AdminKeys: adminKeys,
		Clock:     clock,
	})
	return &testServer{handler: h, store: store, dir: dir, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 100, nil, assess.Defaults())
	rec := s.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "2024-06-01T09:00:00Z", body["timestamp"])

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "").Code)
}

func TestScanValidation(t *testing.T) {
	s := newTestServer(t, 100, nil, assess.Defaults())
	tests := []struct {
		path, body, want string
	}{
		{"/api/scan/url", `{}`, "Invalid URL provided"},
		{"/api/scan/url", `{"url":"  <>  "}`, "Invalid URL provided"},
		{"/api/scan/url", `{"url":42}`, "Invalid URL provided"},
		{"/api/scan/message", `{"message":""}`, "Invalid message provided"},
		{"/api/scan/password", `{}`, "Invalid password"},
		{"/api/scan/password", `{"password":"` + strings.Repeat("a", 129) + `"}`, "Invalid password"},
		{"/api/scan/file", `{"fileSize":10}`, "Invalid file information"},
		{"/api/scan/file", `{"fileName":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.body, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["error"])
		})
	}

	rec := s.do(t, http.MethodGet, "/api/analytics", "")
	assert.EqualValues(t, 0, decodeBody(t, rec)["totalScans"], "rejected scans are not recorded")
}

func TestScanFlowUpdatesAnalyticsAndScore(t *testing.T) {
	s := newTestServer(t, 100, nil, assess.Defaults())

	rec := s.do(t, http.MethodPost, "/api/scan/url", `{"url":"https://example.com","userId":"u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "safe", decodeBody(t, rec)["riskLevel"])

	rec = s.do(t, http.MethodPost, "/api/scan/url", `{"url":"http://192.168.1.1/login/verify-account"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "safe", decodeBody(t, rec)["riskLevel"])

	rec = s.do(t, http.MethodPost, "/api/scan/password", `{"password":"T7#kq!Zr2@Lm9$","userId":"u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	pw := decodeBody(t, rec)
	assert.Equal(t, "strong", pw["strength"])
	assert.Contains(t, pw, "crackTime")

	rec = s.do(t, http.MethodGet, "/api/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	a := decodeBody(t, rec)
	assert.EqualValues(t, 3, a["totalScans"])
	assert.EqualValues(t, 1, a["scamsPrevented"])
	assert.EqualValues(t, 2, a["scamsPreventedToday"], "the password scan has no risk level")
	assert.Len(t, a["recentScans"], 3)

	rec = s.do(t, http.MethodGet, "/api/user/u1/score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	score := decodeBody(t, rec)
	assert.EqualValues(t, 2, score["totalScans"])
	assert.EqualValues(t, 2, score["safeActions"])
	assert.EqualValues(t, 100, score["score"])
	assert.Equal(t, "Cyber Guardian", score["level"])

	// the password never reaches the store
	raw, err := os.ReadFile(filepath.Join(s.dir, "scans.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "T7#kq")
	assert.Contains(t, string(raw), domain.RedactedInput)
	assert.NotContains(t, string(raw), "crackTime")
}

func TestScanMessageStoresTruncatedSanitizedInput(t *testing.T) {
	s := newTestServer(t, 100, nil, assess.Defaults())
	msg := "<b>" + strings.Repeat("x", 300) + "</b>"
	body, err := json.Marshal(map[string]any{"message": msg, "simpleMode": true})
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/api/scan/message", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var recs []domain.Record
	require.NoError(t, s.store.Read(context.Background(), docstore.TableScans, &recs))
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Input, domain.MaxMessageInput)
	assert.True(t, strings.HasPrefix(recs[0].Input, "bxxx"))
	assert.Equal(t, appscans.GuestUser, recs[0].UserID)
}

func TestScanFile(t *testing.T) {
	s := newTestServer(t, 100, nil, assess.Defaults())
	rec := s.do(t, http.MethodPost, "/api/scan/file", `{"fileName":"invoice.pdf.exe","fileSize":300,"fileType":"application/x-msdownload"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "critical", decodeBody(t, rec)["riskLevel"])
}

func TestAssessorFailureIsGeneric(t *testing.T) {
	as := assess.Defaults()
	as.URL = brokenURL{}
	s := newTestServer(t, 100, nil, as)

	rec := s.do(t, http.MethodPost, "/api/scan/url", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Scan failed", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestCorruptAnalyticsIs500(t *testing.T) {
	s := newTestServer(t, 100, nil, assess.Defaults())
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "analytics.json"), []byte("{not json"), 0o644))

	rec := s.do(t, http.MethodGet, "/api/analytics", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch analytics", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), s.dir)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 3, nil, assess.Defaults())
	for range 3 {
		require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/health", "").Code)
	}
	rec := s.do(t, http.MethodPost, "/api/scan/url", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", decodeBody(t, rec)["error"])

	var recs []domain.Record
	require.NoError(t, s.store.Read(context.Background(), docstore.TableScans, &recs))
	assert.Empty(t, recs, "rejected request performs no work")

	// routes outside /api are not limited
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "").Code)
	metrics := s.do(t, http.MethodGet, "/metrics", "")
	assert.Contains(t, metrics.Body.String(), "cyberguard_rate_limited_total 1")
}

func TestThreatsLive(t *testing.T) {
	s := newTestServer(t, 100, nil, assess.Defaults())
	rec := s.do(t, http.MethodGet, "/api/threats/live", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Threats []threats.Event `json:"threats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Threats, threats.DefaultFeedSize)
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t, 100, []string{"admin-key"}, assess.Defaults())
	s.do(t, http.MethodPost, "/api/scan/url", `{"url":"https://example.com"}`)
	s.do(t, http.MethodPost, "/api/scan/password", `{"password":"abc"}`)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/admin/stats", "").Code)

	rec := s.do(t, http.MethodGet, "/api/admin/stats", "", "Authorization", "Bearer admin-key")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["totalScans"])
	assert.Equal(t, map[string]any{"url": 1.0, "password": 1.0}, body["threatCounts"])
	assert.Equal(t, map[string]any{"safe": 2.0, "low": 0.0, "medium": 0.0, "high": 0.0, "critical": 0.0}, body["riskLevels"])
	assert.Len(t, body["recentActivity"], 2)
}
