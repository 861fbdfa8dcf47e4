package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/PeopleImport/internal/config"
	"github.com/JonMunkholm/PeopleImport/internal/core"
	"github.com/JonMunkholm/PeopleImport/internal/logging"
	"github.com/JonMunkholm/PeopleImport/internal/web"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	pipeline := newPipeline(cfg.Validation)
	service := core.NewService(pipeline, core.ServiceConfig{
		MaxConcurrentRuns: cfg.Validation.MaxConcurrent,
		MaxWait:           cfg.Validation.MaxWaitTime,
		SessionTTL:        cfg.Session.TTL,
		ResultRetention:   cfg.Session.ResultRetention,
		HistorySize:       cfg.Validation.HistorySize,
	})
	server := web.NewServer(service, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		service.StartSessionSweeper(gctx, cfg.Session.SweepInterval)
		return nil
	})

	g.Go(func() error {
		server.StartLimiterCleanup(gctx, cfg.Session.SweepInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests before draining in-flight runs.
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for validation runs to complete", "active", status.Active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("validation runs did not complete in time", "error", err)
			} else {
				slog.Info("all validation runs completed")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newPipeline builds the validation pipeline from config. An empty domain
// list keeps the built-in allow-list.
func newPipeline(cfg config.ValidationConfig) *core.Pipeline {
	p := core.NewPipeline()
	p.ChangeCap = cfg.ChangeCap
	p.ProgressInterval = cfg.ProgressInterval
	p.Options.CleanUp = cfg.CleanupMode
	if len(cfg.AllowedEmailDomains) > 0 {
		p.Options.AllowedEmailDomains = cfg.AllowedEmailDomains
	}
	return p
}
