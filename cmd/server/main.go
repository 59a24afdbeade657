// sitekit server
//
// Persistence and publication core for the website editor:
// - pluggable storage/hosting connectors (filesystem, S3)
// - split/merge document storage with per-page files
// - publish job tracking with lifecycle events
// - Prometheus metrics & structured logging (zap)
//
// The editor-facing HTTP API is mounted by a separate service; this process
// owns the data directory and the metrics endpoint.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/connector"
	"github.com/sitekit/sitekit/internal/connector/fs"
	s3hosting "github.com/sitekit/sitekit/internal/connector/s3"
	"github.com/sitekit/sitekit/internal/events"
	"github.com/sitekit/sitekit/internal/jobs"
	"github.com/sitekit/sitekit/internal/logging"
	"github.com/sitekit/sitekit/internal/metrics"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("sitekit server starting...",
		zap.String("data_path", cfg.DataPath),
		zap.String("metrics", cfg.MetricsAddr))

	ctx := context.Background()

	// Job registry with lifecycle events, mirrored into the log
	broadcaster := events.NewBroadcaster()
	jobManager := jobs.NewManager(broadcaster)
	go logJobEvents(broadcaster)

	// Connector registry
	registry := connector.NewRegistry()

	storage, err := fs.NewStorage(cfg.DataPath, cfg.AssetsFolder)
	if err != nil {
		logging.Fatal("storage init failed", zap.Error(err))
	}
	if err := storage.Init(ctx, cfg.DefaultWebsiteID); err != nil {
		logging.Fatal("default website init failed", zap.Error(err))
	}
	registry.RegisterStorage(storage)

	hosting := fs.NewHosting(cfg.DataPath, cfg.HostingPath)
	if err := hosting.Init(ctx); err != nil {
		logging.Fatal("hosting init failed", zap.Error(err))
	}
	registry.RegisterHosting(hosting)

	if cfg.S3Enabled() {
		s3conn, err := s3hosting.NewHosting(ctx, s3hosting.Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			logging.Fatal("s3 hosting init failed", zap.Error(err))
		}
		registry.RegisterHosting(s3conn)
		logging.Info("s3 hosting enabled", zap.String("bucket", cfg.S3Bucket))
	}

	logging.Info("connectors registered",
		zap.Int("storage", len(registry.StorageConnectors())),
		zap.Int("hosting", len(registry.HostingConnectors())))

	// Metrics endpoint, plus a read-only job lookup for operators
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsMux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimPrefix(r.URL.Path, "/jobs/")
		job := jobManager.Get(jobID)
		if job == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(job); err != nil {
			logging.Error("job encode failed", zap.Error(err))
		}
	})
	metricsServer := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      metricsMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("metrics server failed", zap.Error(err))
		}
	}()

	logging.Info("sitekit server ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logging.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("metrics server shutdown failed", zap.Error(err))
	}
}

// logJobEvents mirrors job lifecycle events into the structured log.
func logJobEvents(broadcaster *events.Broadcaster) {
	ch := broadcaster.Subscribe()
	for ev := range ch {
		logging.Info("job event",
			zap.String("type", ev.Type),
			zap.String("job_id", ev.JobID),
			zap.String("message", ev.Message))
	}
}
