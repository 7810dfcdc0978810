package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/cyberguard/internal/application"
	appai "github.com/bryanwahyu/cyberguard/internal/application/ai"
	appanalytics "github.com/bryanwahyu/cyberguard/internal/application/analytics"
	appbackup "github.com/bryanwahyu/cyberguard/internal/application/backup"
	appscans "github.com/bryanwahyu/cyberguard/internal/application/scans"
	"github.com/bryanwahyu/cyberguard/internal/config"
	domain "github.com/bryanwahyu/cyberguard/internal/domain/scans"
	"github.com/bryanwahyu/cyberguard/internal/domain/threats"
	"github.com/bryanwahyu/cyberguard/internal/infra/ai/openai"
	"github.com/bryanwahyu/cyberguard/internal/infra/assess"
	"github.com/bryanwahyu/cyberguard/internal/infra/db"
	"github.com/bryanwahyu/cyberguard/internal/infra/docstore"
	"github.com/bryanwahyu/cyberguard/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/cyberguard/internal/infra/storage"
	"github.com/bryanwahyu/cyberguard/internal/middleware"
	"github.com/bryanwahyu/cyberguard/internal/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("cyberguard: fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	pflag.StringVarP(&path, "config", "c", path, "path to config.yaml")
	pflag.Parse()

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}
	observability.InitLogger(observability.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := db.OpenBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	store := docstore.New(backend)
	defer store.Close()
	if err := docstore.InitDefaults(ctx, store); err != nil {
		return fmt.Errorf("init tables: %w", err)
	}

	scanRepo := docstore.NewScanRepository(store)
	analyticsRepo := docstore.NewAnalyticsRepository(store)
	last, err := appscans.LastID(ctx, scanRepo)
	if err != nil {
		slog.Warn("scans: cannot read last id, starting from clock", "error", err)
	}

	assessors := assess.Defaults()
	if cfg.OpenAI.APIKey != "" {
		assessors.Message = appai.NewMessageAssessor(openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model), assessors.Message)
		slog.Info("ai: message assessment enabled", "model", cfg.OpenAI.Model)
	}

	clock := application.SystemClock{}
	metrics := middleware.NewMetrics()
	limiter := middleware.NewSlidingWindowLimiter(middleware.DefaultRateLimit, middleware.DefaultRateWindow)
	limiter.OnReject = metrics.RateLimited

	handler := httpserver.NewRouter(httpserver.Deps{
		Scans: &appscans.Service{
			Repo:      scanRepo,
			Analytics: analyticsRepo,
			Assessors: assessors,
			IDs:       domain.NewIDGenerator(last),
			Clock:     clock,
			Observer:  metrics,
		},
		Analytics: &appanalytics.Service{Repo: analyticsRepo, Scans: scanRepo, Clock: clock},
		Threats:   threats.NewSource(rand.New(rand.NewSource(time.Now().UnixNano())), threats.DefaultFeedSize),
		Limiter:   limiter,
		Metrics:   metrics,
		Ready:     map[string]middleware.HealthChecker{"store": &middleware.StoreHealthChecker{Store: store}},
		AdminKeys: cfg.Admin.APIKeys,
		Clock:     clock,
	})

	if cfg.Backup.Enabled {
		objects, err := minioStore.New(ctx,
			cfg.Backup.Endpoint,
			cfg.Backup.Region,
			cfg.Backup.BucketName,
			cfg.Backup.AccessKey,
			cfg.Backup.SecretKey,
			cfg.Backup.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		backups := &appbackup.Service{Tables: store, Uploader: objects, Clock: clock, Prefix: cfg.Backup.Prefix}
		c, err := backups.Schedule(cfg.Backup.Schedule, 5*time.Minute)
		if err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		slog.Info("backup: scheduled", "schedule", cfg.Backup.Schedule, "bucket", cfg.Backup.BucketName)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http: listening", "addr", addr, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		limiter.RunSweeper(gctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("http: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
