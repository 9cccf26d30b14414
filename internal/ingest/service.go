// Package ingest is the asynchronous boundary around the pipeline: it
// accepts uploaded file content, acknowledges with a job id, runs the
// pipeline in the background, and records the outcome in the job store.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cashlens-dev/cashlens/internal/job"
	"github.com/cashlens-dev/cashlens/internal/model"
	"github.com/cashlens-dev/cashlens/internal/pipeline"
)

// Service coordinates uploads, background processing and job status.
type Service struct {
	pipe    *pipeline.Pipeline
	store   job.Store
	tempDir string
	timeout time.Duration
}

// NewService builds the ingestion service. tempDir holds uploaded files
// for the duration of a run; timeout bounds one pipeline run.
func NewService(pipe *pipeline.Pipeline, store job.Store, tempDir string, timeout time.Duration) *Service {
	return &Service{pipe: pipe, store: store, tempDir: tempDir, timeout: timeout}
}

// Submit stores the upload in a temp file, registers a processing job
// and starts the pipeline in the background. The job id returns
// immediately; the caller polls Status for the outcome.
func (s *Service) Submit(ctx context.Context, filename string, content io.Reader, override *model.ProcessDefinition) (uuid.UUID, error) {
	id := uuid.New()

	path := filepath.Join(s.tempDir, fmt.Sprintf("upload-%s-%s", id, filepath.Base(filename)))

	f, err := os.Create(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)

		return uuid.Nil, fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return uuid.Nil, fmt.Errorf("closing temp file: %w", err)
	}

	if err := s.store.Put(ctx, job.Record{ID: id, Status: job.StatusProcessing, UpdatedAt: time.Now().UTC()}); err != nil {
		os.Remove(path)
		return uuid.Nil, fmt.Errorf("registering job: %w", err)
	}

	go s.process(id, path, override)

	return id, nil
}

// storeWriteTimeout bounds the terminal record write. It is independent
// of the run timeout: a run that used up its deadline must still land a
// failed record, or the caller polls processing forever.
const storeWriteTimeout = 10 * time.Second

// process runs the pipeline for one job. The temp file is removed on
// every path, success or failure.
func (s *Service) process(id uuid.UUID, path string, override *model.ProcessDefinition) {
	defer os.Remove(path)

	runCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.pipe.Run(runCtx, path, override)
	if err != nil {
		s.put(job.Record{
			ID:        id,
			Status:    job.StatusFailed,
			Error:     err.Error(),
			UpdatedAt: time.Now().UTC(),
		})

		return
	}

	m := result.Model

	s.put(job.Record{
		ID:     id,
		Status: job.StatusCompleted,
		Result: &job.Result{
			ProcessType:      m.ProcessDefinition.ProcessType,
			Confidence:       m.ProcessDefinition.Confidence,
			TransactionCount: len(m.Transactions),
			TimeBucketCount:  len(m.TimeBuckets),
			Metrics:          m.CalculatedMetrics,
			Model:            m,
		},
		UpdatedAt: time.Now().UTC(),
	})
}

// put writes a terminal record under its own deadline, never the run's.
func (s *Service) put(rec job.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()

	if err := s.store.Put(ctx, rec); err != nil {
		slog.Error("failed to store job record", "job_id", rec.ID, "error", err)
	}
}

// Status returns the stored record for a job id.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (job.Record, bool, error) {
	return s.store.Get(ctx, id)
}
