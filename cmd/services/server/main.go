package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftwatch/driftd/internal/baseline"
	"github.com/driftwatch/driftd/internal/config"
	"github.com/driftwatch/driftd/internal/ingest"
	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/models"
	"github.com/driftwatch/driftd/internal/queue"
	"github.com/driftwatch/driftd/internal/registry"
	"github.com/driftwatch/driftd/internal/router"
	"github.com/driftwatch/driftd/internal/scoring"
	"github.com/driftwatch/driftd/internal/snapshot"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Scoring service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Baseline registry shared by the HTTP layer, the queue consumer and
	// the snapshot worker
	reg := baseline.NewRegistry(cfg.Baseline.WindowSize, cfg.Baseline.SeasonalityPeriod)
	logger.Info("Baseline registry initialized",
		"window_size", cfg.Baseline.WindowSize,
		"seasonality_period", cfg.Baseline.SeasonalityPeriod)

	// Restore baselines from the newest snapshot, if any
	var snapshots *snapshot.Store
	if cfg.Snapshot.Dir != "" {
		snapshots = snapshot.NewStore(cfg.Snapshot.Dir, cfg.Snapshot.Keep, logger)
		restored, err := snapshots.Restore(reg)
		switch {
		case err != nil:
			logger.Warn("Failed to restore snapshot, starting cold", "error", err)
		case restored > 0:
			logger.Info("Baselines restored from snapshot", "signals", restored)
		default:
			logger.Info("No snapshot found, starting cold")
		}
	} else {
		logger.Warn("Snapshots disabled - baselines will not survive restarts")
	}

	// Connect to Queue (configurable backend)
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	queueClient, err := queue.NewQueue(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = queueClient.Close() }()
	logger.Info("Queue connection established")

	// Scoring service: observes samples, publishes anomaly alerts
	scoringSvc := scoring.NewService(reg, queueClient, cfg.Alert, logger)
	if cfg.Alert.Enabled {
		logger.Info("Anomaly alerts enabled",
			"threshold", cfg.Alert.Threshold, "subject", cfg.Alert.Subject)
	} else {
		logger.Warn("Anomaly alerts DISABLED - scores will not be published")
	}

	// Queue sample consumer
	var consumer *ingest.Consumer
	if cfg.Ingest.Enabled {
		consumer = ingest.NewConsumer(queueClient, scoringSvc, cfg.Ingest, logger)
		if err := consumer.Start(); err != nil {
			logger.Fatal("Failed to start sample consumer", "error", err)
		}
		logger.Info("Sample consumer started", "subject", cfg.Ingest.Subject)
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Initialize router
	app := router.New(logger, scoringSvc, snapshots, *cfg)

	// Create context for background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Register this node with etcd so peers and operators can discover it
	var nodeReg *registry.NodeRegistration
	if cfg.Etcd.Enabled {
		etcdClient, err := registry.NewEtcdClient(cfg.Etcd)
		if err != nil {
			logger.Fatal("Failed to connect to etcd", "error", err)
		}
		defer func() { _ = etcdClient.Close() }()

		advertise := cfg.Node.AdvertiseAddress
		if advertise == "" {
			advertise = cfg.Server.Host
		}
		nodeInfo := models.NodeInfo{
			ID:      cfg.Node.ID,
			Address: fmt.Sprintf("%s:%d", advertise, cfg.Server.HTTPPort),
			Version: Version,
		}
		nodeReg = registry.NewNodeRegistration(etcdClient, nodeInfo, reg.Len, logger)
		if err := nodeReg.Register(ctx); err != nil {
			logger.Fatal("Failed to register node", "error", err)
		}
	}

	// Periodic snapshot worker
	var snapshotWorker *snapshot.Worker
	if snapshots != nil && cfg.Snapshot.Interval > 0 {
		snapshotWorker = snapshot.NewWorker(snapshots, reg, cfg.Snapshot.Interval, logger)
		snapshotWorker.Start()
		logger.Info("Snapshot worker started",
			"interval", cfg.Snapshot.Interval, "dir", cfg.Snapshot.Dir, "keep", cfg.Snapshot.Keep)
	}

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop consuming before the final snapshot so no samples land between
	// the snapshot and process exit
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.Error("Failed to stop sample consumer", "error", err)
		}
	}

	// Stop takes a final snapshot before returning
	if snapshotWorker != nil {
		snapshotWorker.Stop()
	}

	if nodeReg != nil {
		deregCtx, deregCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := nodeReg.Deregister(deregCtx); err != nil {
			logger.Error("Failed to deregister node", "error", err)
		}
		deregCancel()
	}

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
