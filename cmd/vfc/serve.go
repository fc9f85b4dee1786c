package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/visitor-flow/vfc/internal/api"
	"github.com/visitor-flow/vfc/internal/audit"
	"github.com/visitor-flow/vfc/internal/broadcast"
	"github.com/visitor-flow/vfc/internal/config"
	"github.com/visitor-flow/vfc/internal/eventlog"
	"github.com/visitor-flow/vfc/internal/ingest"
	"github.com/visitor-flow/vfc/internal/logging"
	"github.com/visitor-flow/vfc/internal/stats"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingest and broadcast server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	logger.Infof("Starting visitor flow service v%s", Version)
	logger.WithField("mode", cfg.Stats.Mode).Info("Configuration loaded")

	// Step 2: Open the event log
	store, err := eventlog.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer store.Close()
	logger.WithField("backend", cfg.Store.Backend).Info("Event log opened")

	// Step 3: Build the statistics aggregator
	strategy, err := stats.StrategyFromConfig(cfg)
	if err != nil {
		return err
	}
	aggregator := stats.NewService(store, strategy, stats.WithLogger(logger))

	// Step 4: Initialize the broadcast hub
	hub := broadcast.NewHub(cfg.Hub, broadcast.WithLogger(logger))
	logger.Info("Broadcast hub initialized")

	// Step 5: Initialize the audit trail
	auditLogger, err := audit.NewLogger(cfg.Audit, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize audit logger: %w", err)
	}
	logger.WithField("path", auditLogger.Path()).Info("Audit logger initialized")

	// Step 6: Wire ingestion and the API server
	ingestService := ingest.NewService(store, aggregator, hub,
		ingest.WithAudit(auditLogger), ingest.WithLogger(logger))
	server := api.NewServer(cfg, ingestService, hub, logger, Version)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()
	logger.Infof("Listening on %s (ws: /ws, pull: /stats, health: /api/v1/health)", cfg.Server.Addr)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var runErr error
	select {
	case sig := <-shutdown:
		logger.Infof("Received signal %v, initiating graceful shutdown", sig)
	case err := <-serverErr:
		runErr = err
		if err != nil {
			logger.WithError(err).Error("Server error")
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()
	logger.Info("Broadcast hub stopped")

	if err := server.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("Error stopping HTTP server")
	}

	if err := auditLogger.Close(); err != nil {
		logger.WithError(err).Error("Error closing audit logger")
	}

	logger.Info("Visitor flow service shutdown complete")
	return runErr
}
