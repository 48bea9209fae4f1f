package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/dataquality/internal/advisory"
	"github.com/JonMunkholm/dataquality/internal/config"
	"github.com/JonMunkholm/dataquality/internal/core"
	"github.com/JonMunkholm/dataquality/internal/logging"
	"github.com/JonMunkholm/dataquality/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"max_concurrent", cfg.Engine.MaxConcurrent,
		"lineage_capacity", cfg.Engine.LineageCapacity,
		"advisory_enabled", cfg.Advisory.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	scoring, err := core.NewScoringConfigStore(core.ScoringConfig{
		PrimaryKeyViolationBoost: cfg.Scoring.PrimaryKeyViolationBoost,
		ComplianceRiskBoost:      cfg.Scoring.ComplianceRiskBoost,
		DecayMaxDays:             cfg.Scoring.DecayMaxDays,
		DecayMinFactor:           cfg.Scoring.DecayMinFactor,
		HighThreshold:            cfg.Scoring.HighThreshold,
		MediumThreshold:          cfg.Scoring.MediumThreshold,
	})
	if err != nil {
		slog.Error("invalid scoring configuration", "error", err)
		os.Exit(1)
	}

	var advisor core.Advisor
	if cfg.Advisory.Enabled {
		advisor, err = advisory.New(advisory.Config{
			Provider: cfg.Advisory.Provider,
			APIKey:   cfg.Advisory.APIKey,
			Model:    cfg.Advisory.Model,
			Endpoint: cfg.Advisory.Endpoint,
			RetryMax: cfg.Advisory.RetryMax,
			Timeout:  cfg.Advisory.Timeout,
		})
		if err != nil {
			slog.Error("failed to configure advisory provider", "error", err)
			os.Exit(1)
		}
		slog.Info("advisory provider enabled", "provider", cfg.Advisory.Provider)
	}

	// Create service with config
	service, err := core.NewService(repo, core.ServiceConfig{
		Scoring:         scoring,
		Advisor:         advisor,
		LineageCapacity: cfg.Engine.LineageCapacity,
		MaxConcurrent:   cfg.Engine.MaxConcurrent,
		MaxWait:         cfg.Engine.MaxWaitTime,
		AdvisoryTimeout: cfg.Advisory.Timeout,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("detectors registered", "count", core.DetectorCount())

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRescoreScheduler(jobCtx, cfg.Engine.RescoreInterval)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for running analyses to finish (with timeout)
		status := service.Limiter().Status()
		if status.Active > 0 {
			slog.Info("waiting for analyses to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("analyses did not complete in time", "error", err)
			} else {
				slog.Info("all analyses completed")
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		closeRepo()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
