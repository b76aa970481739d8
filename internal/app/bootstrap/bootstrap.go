package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	slaengine "stagewatch/contexts/crm-compliance/sla-engine"
	postgresadapter "stagewatch/contexts/crm-compliance/sla-engine/adapters/postgres"
	"stagewatch/internal/platform/config"
	"stagewatch/internal/platform/db"
	"stagewatch/internal/platform/httpserver"
	"stagewatch/internal/platform/mail"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres         *db.Postgres
	engine           slaengine.Module
	detectorInterval time.Duration
	summaryHour      int
	enableDetector   bool
	enableSummary    bool
	logger           *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	engine, pg, err := buildEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(engine, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	engine, pg, err := buildEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres:         pg,
		engine:           engine,
		detectorInterval: cfg.DetectorInterval,
		summaryHour:      cfg.SummaryHour,
		enableDetector:   cfg.EnableBreachDetector,
		enableSummary:    cfg.EnableDailySummary,
		logger:           logger,
	}, nil
}

func buildEngine(cfg config.Config, logger *slog.Logger) (slaengine.Module, *db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return slaengine.Module{}, nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return slaengine.Module{}, nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	engine := slaengine.NewModule(slaengine.Dependencies{
		Rules:            repo,
		Records:          repo,
		Breaches:         repo,
		Hierarchy:        repo,
		Alerts:           repo,
		Mail:             mail.NewSender(cfg.Mail, logger),
		Clock:            postgresadapter.SystemClock{},
		IDGenerator:      postgresadapter.UUIDGenerator{},
		DefaultRecipient: cfg.DefaultEscalationEmail,
		BaseURL:          cfg.BaseURL,
		SummaryLookback:  24 * time.Hour,
		NotifyTimeout:    cfg.NotifyTimeout,
		Logger:           logger,
	})
	return engine, pg, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run drives the two scheduled jobs. They coordinate only through the
// durable breach log, so a failed run is logged and the loop keeps
// going rather than killing the scheduler.
func (w *WorkerApp) Run(ctx context.Context) error {
	detectorTicker := time.NewTicker(w.detectorInterval)
	defer detectorTicker.Stop()

	summaryTimer := time.NewTimer(nextSummaryDelay(time.Now(), w.summaryHour))
	defer summaryTimer.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"detector_interval", w.detectorInterval.String(),
		"summary_hour", w.summaryHour,
	)

	if w.enableDetector {
		w.runDetector(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-detectorTicker.C:
			if w.enableDetector {
				w.runDetector(ctx)
			}
		case <-summaryTimer.C:
			if w.enableSummary {
				w.runSummary(ctx)
			}
			summaryTimer.Reset(nextSummaryDelay(time.Now(), w.summaryHour))
		}
	}
}

func (w *WorkerApp) runDetector(ctx context.Context) {
	if _, err := w.engine.Detector.RunOnce(ctx); err != nil {
		w.logger.Error("breach detector run failed",
			"event", "bootstrap_detector_run_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func (w *WorkerApp) runSummary(ctx context.Context) {
	if _, err := w.engine.Summary.RunOnce(ctx); err != nil {
		w.logger.Error("daily summary run failed",
			"event", "bootstrap_summary_run_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// nextSummaryDelay returns the wait until the next occurrence of the
// configured local hour.
func nextSummaryDelay(now time.Time, hour int) time.Duration {
	if hour < 0 || hour > 23 {
		hour = 7
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
