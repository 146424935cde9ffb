// Package app wires configuration into running components and owns the
// process lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marktr/adbot/internal/ads"
	"github.com/marktr/adbot/internal/bot"
	"github.com/marktr/adbot/internal/config"
	"github.com/marktr/adbot/internal/creative"
	"github.com/marktr/adbot/internal/gen"
	"github.com/marktr/adbot/internal/metrics"
	"github.com/marktr/adbot/internal/notion"
	"github.com/marktr/adbot/internal/report"
)

// App is the assembled service.
type App struct {
	config        *config.Config
	bot           *bot.Bot
	scheduler     *report.Scheduler
	metricsServer *metrics.Server
	logger        *slog.Logger
}

// New builds every component from configuration. The Telegram connection
// is established here, so a bad token fails fast.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	m := metrics.New()
	cache := creative.NewCache(cfg.Creative.StatePath)

	gateway := ads.NewClient(cfg.Facebook.APIVersion, cfg.Facebook.AccessToken,
		logger.With("component", "ads"))

	generator := gen.New(
		cfg.Creative.GeminiBin,
		cfg.Creative.OutputDir,
		cfg.Creative.Models,
		cfg.Creative.AttemptTimeout,
		logger.With("component", "gen"),
	)

	var syncer bot.WorkspaceSyncer
	if cfg.Notion.Enabled() {
		syncer = notion.NewSyncer(cfg.Notion.APIKey, cfg.Notion.ClientsDBID, cache,
			logger.With("component", "notion"))
		logger.Info("workspace sync enabled")
	} else {
		logger.Info("workspace sync disabled, no API key configured")
	}

	b, err := bot.New(
		cfg.Telegram.Token,
		cfg.Telegram.ChatID,
		cfg.Facebook.AccountIDs,
		gateway,
		cache,
		generator,
		syncer,
		m,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	scheduler, err := report.NewScheduler(cfg.Report.Hour, cfg.Location(), b.Router(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(m, cfg.Metrics.ListenAddr, cfg.Metrics.Path,
			logger.With("component", "metrics"))
	}

	return &App{
		config:        cfg,
		bot:           b,
		scheduler:     scheduler,
		metricsServer: metricsServer,
		logger:        logger,
	}, nil
}

// Run starts all components and blocks until a signal or a fatal error.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting adbot",
		"accounts", len(a.config.Facebook.AccountIDs),
		"report_hour", a.config.Report.Hour,
		"timezone", a.config.Report.Timezone,
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 2)

	a.scheduler.Start()

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	go func() {
		if err := a.bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("bot: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("component error", "error", err)
		cancel()
	}

	return a.Shutdown(context.Background())
}

// ReportOnce sends a single report and exits, for cron-style invocation.
func (a *App) ReportOnce(ctx context.Context, weekly bool) error {
	if weekly {
		a.bot.Router().SendWeeklyReport(ctx)
	} else {
		a.bot.Router().SendDailyReport(ctx)
	}
	return nil
}

// Shutdown stops the scheduler and the metrics listener. The polling
// loop stops with its context.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	a.scheduler.Stop()

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown error", "error", err)
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}

// setupLogger creates a logger based on configuration
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
