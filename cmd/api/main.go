package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/config"
	"github.com/cashlens-dev/cashlens/internal/database"
	"github.com/cashlens-dev/cashlens/internal/export"
	"github.com/cashlens-dev/cashlens/internal/extraction"
	cashlensHttp "github.com/cashlens-dev/cashlens/internal/http"
	ingestHandler "github.com/cashlens-dev/cashlens/internal/http/ingest"
	jobsHandler "github.com/cashlens-dev/cashlens/internal/http/jobs"
	"github.com/cashlens-dev/cashlens/internal/ingest"
	"github.com/cashlens-dev/cashlens/internal/job"
	jobStore "github.com/cashlens-dev/cashlens/internal/job/store"
	"github.com/cashlens-dev/cashlens/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := newJobStore(cfg)
	if err != nil {
		slog.Error("failed to set up job store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	tempDir := cfg.Pipeline.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	var (
		extractor     = extraction.New(cfg.Extraction.URL, cfg.Extraction.Token, cfg.Extraction.Timeout)
		pipe          = pipeline.New(extractor)
		ingestService = ingest.NewService(pipe, store, tempDir, cfg.Pipeline.Timeout)
		exportService = export.NewService(audit.NewLogger())
	)

	var (
		ingestH = ingestHandler.NewHandler(ingestService)
		jobsH   = jobsHandler.NewHandler(ingestService, exportService)
	)

	router := cashlensHttp.New(ingestH, jobsH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// newJobStore picks persistence for job records: Postgres when a DB host
// is configured, otherwise in-memory.
func newJobStore(cfg *config.Config) (job.Store, func(), error) {
	if cfg.DB.Host == "" {
		slog.Info("no database configured, job records kept in memory")
		return job.NewMemoryStore(), func() {}, nil
	}

	db, err := database.New(context.Background(), cfg.ConnectionString(), cfg.DB.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	return jobStore.New(db), func() { db.Close() }, nil
}
