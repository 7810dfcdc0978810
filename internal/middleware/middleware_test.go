package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"<script>alert(1)</script>", "scriptalert(1)/script"},
		{" < > ", ""},
		{"héllo", "héllo"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in))
	}

	long := strings.Repeat("é", MaxInputLength+5)
	got := Sanitize(long)
	assert.Equal(t, MaxInputLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name   string
		keys   []string
		header string
		want   int
	}{
		{"open without keys", nil, "", http.StatusOK},
		{"missing header", []string{"k1"}, "", http.StatusUnauthorized},
		{"wrong key", []string{"k1"}, "Bearer nope", http.StatusUnauthorized},
		{"bearer key", []string{"k1", "k2"}, "Bearer k2", http.StatusOK},
		{"bare key", []string{"k1"}, "k1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tt.keys)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"healthy", nil, http.StatusOK},
		{"backend down", errors.New("dial tcp: refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ReadinessHandler(map[string]HealthChecker{
				"store": &StoreHealthChecker{Store: pingFunc(func(context.Context) error { return tt.err })},
			})
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "refused")
		})
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	h := m.MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	for _, p := range []string{"/ok", "/ok", "/bad"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	m.ScanIngested(scans.TypeURL, scans.RiskHigh)
	m.PersistFailed("analytics")
	m.RateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("4xx")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestsInProgress))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scansTotal.WithLabelValues("url", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures.WithLabelValues("analytics")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "cyberguard_rate_limited_total 1")
}
