package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/cyberguard/internal/application"
	appanalytics "github.com/bryanwahyu/cyberguard/internal/application/analytics"
	appscans "github.com/bryanwahyu/cyberguard/internal/application/scans"
	domain "github.com/bryanwahyu/cyberguard/internal/domain/scans"
	"github.com/bryanwahyu/cyberguard/internal/domain/threats"
	"github.com/bryanwahyu/cyberguard/internal/middleware"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 10 << 20

// Deps are the collaborators the router serves. Metrics, Ready and AdminKeys are optional.
type Deps struct {
	Scans     *appscans.Service
	Analytics *appanalytics.Service
	Threats   *threats.Source
	Limiter   *middleware.SlidingWindowLimiter
	Metrics   *middleware.Metrics
	Ready     map[string]middleware.HealthChecker
	AdminKeys []string
	Clock     application.Clock
}

type Router struct {
	Deps
}

var errBadBody = errors.New("invalid request body")

func NewRouter(d Deps) http.Handler {
	r := &Router{Deps: d}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	if d.Metrics != nil {
		mux.Use(d.Metrics.MetricsMiddleware)
	}
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler(d.Ready))
	if d.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(d.Limiter.Middleware)
		rt.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				req.Body = http.MaxBytesReader(w, req.Body, MaxBodyBytes)
				next.ServeHTTP(w, req)
			})
		})

		rt.Get("/health", r.handleHealth)
		rt.Get("/analytics", r.wrap(r.handleAnalytics, "Failed to fetch analytics"))
		rt.Post("/scan/url", r.wrap(r.handleScanURL, "Scan failed"))
		rt.Post("/scan/message", r.wrap(r.handleScanMessage, "Analysis failed"))
		rt.Post("/scan/password", r.wrap(r.handleScanPassword, "Analysis failed"))
		rt.Post("/scan/file", r.wrap(r.handleScanFile, "Analysis failed"))
		rt.Get("/user/{userId}/score", r.wrap(r.handleUserScore, "Failed to calculate score"))
		rt.Get("/threats/live", r.wrap(r.handleThreats, "Failed to fetch threats"))
		rt.With(middleware.APIKeyAuth(d.AdminKeys)).
			Get("/admin/stats", r.wrap(r.handleAdminStats, "Failed to fetch stats"))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps handler errors to status codes. Only validation messages reach the client;
// everything else is logged and answered with failMsg.
func (r *Router) wrap(h handlerFunc, failMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var ve *domain.ValidationError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &ve):
			middleware.WriteJSONError(w, http.StatusBadRequest, ve.Msg)
		case errors.As(err, &tooLarge):
			middleware.WriteJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.Is(err, errBadBody):
			middleware.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		default:
			slog.Error("http: request failed", "path", req.URL.Path, "request_id", chimw.GetReqID(req.Context()), "error", err)
			middleware.WriteJSONError(w, http.StatusInternalServerError, failMsg)
		}
	}
}

// decode reads a JSON body. An empty body decodes to the zero value.
func decode(req *http.Request, dst any) error {
	err := json.NewDecoder(req.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return errBadBody
}

// text returns v if it is a JSON string, "" otherwise.
func text(v any) string {
	s, _ := v.(string)
	return s
}

// GET /api/health
func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "online",
		"timestamp": r.Clock.Now().UTC().Format(time.RFC3339Nano),
	})
}

// GET /api/analytics
func (r *Router) handleAnalytics(w http.ResponseWriter, req *http.Request) error {
	snap, err := r.Analytics.Snapshot(req.Context())
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, snap)
	return nil
}

// POST /api/scan/url
// Body: {"url": "...", "userId": "..."}
func (r *Router) handleScanURL(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL    any `json:"url"`
		UserID any `json:"userId"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	v, err := r.Scans.ScanURL(req.Context(), middleware.Sanitize(text(body.URL)), text(body.UserID))
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, v)
	return nil
}

// POST /api/scan/message
// Body: {"message": "...", "userId": "...", "simpleMode": true}
func (r *Router) handleScanMessage(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Message    any `json:"message"`
		UserID     any `json:"userId"`
		SimpleMode any `json:"simpleMode"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	simple, _ := body.SimpleMode.(bool)
	v, err := r.Scans.ScanMessage(req.Context(), middleware.Sanitize(text(body.Message)), text(body.UserID), simple)
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, v)
	return nil
}

// POST /api/scan/password
// Body: {"password": "...", "userId": "..."}
func (r *Router) handleScanPassword(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Password any `json:"password"`
		UserID   any `json:"userId"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	// passwords are rated verbatim, never sanitized
	a, err := r.Scans.ScanPassword(req.Context(), text(body.Password), text(body.UserID))
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, a)
	return nil
}

// POST /api/scan/file
// Body: {"fileName": "...", "fileSize": 123, "fileType": "...", "userId": "..."}
func (r *Router) handleScanFile(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		FileName any `json:"fileName"`
		FileSize any `json:"fileSize"`
		FileType any `json:"fileType"`
		UserID   any `json:"userId"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	size, _ := body.FileSize.(float64)
	f := domain.FileInfo{
		Name: middleware.Sanitize(text(body.FileName)),
		Size: int64(size),
		Type: middleware.Sanitize(text(body.FileType)),
	}
	v, err := r.Scans.ScanFile(req.Context(), f, text(body.UserID))
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, v)
	return nil
}

// GET /api/user/{userId}/score
func (r *Router) handleUserScore(w http.ResponseWriter, req *http.Request) error {
	score, err := r.Scans.UserScore(req.Context(), chi.URLParam(req, "userId"))
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, score)
	return nil
}

// GET /api/threats/live
func (r *Router) handleThreats(w http.ResponseWriter, _ *http.Request) error {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"threats": r.Threats.Next(r.Clock.Now().UTC()),
	})
	return nil
}

// GET /api/admin/stats
func (r *Router) handleAdminStats(w http.ResponseWriter, req *http.Request) error {
	sum, err := r.Analytics.AdminSummary(req.Context())
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, sum)
	return nil
}
