// Package job tracks asynchronous ingestion runs: a caller submits a
// file, gets a job id back immediately, and polls for the outcome.
package job

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cashlens-dev/cashlens/internal/model"
)

// Status is the lifecycle state of an ingestion job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Result is the payload of a completed job: headline numbers plus the
// full model for later export.
type Result struct {
	ProcessType      model.ProcessType               `json:"process_type"`
	Confidence       float64                         `json:"confidence"`
	TransactionCount int                             `json:"transaction_count"`
	TimeBucketCount  int                             `json:"time_bucket_count"`
	Metrics          model.CalculatedMetrics         `json:"metrics"`
	Model            *model.NormalizedFinancialModel `json:"model"`
}

// Record is one job's stored state. Error holds a human-readable message
// for failed jobs; internals are never exposed.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the injected persistence capability for job records. The
// lifetime of stored records belongs to the orchestration layer, not the
// pipeline core.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, id uuid.UUID) (Record, bool, error)
}
