package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job lifecycle states and types.
const (
	JobStatusNew        = "new"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"

	JobTypeIndexDocument = "index_document"
)

// IngestJob is a queued document-indexing request processed by the worker.
type IngestJob struct {
	ID           uuid.UUID
	JobType      string
	Payload      map[string]interface{}
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IngestJobRepository defines the persistence operations for ingest jobs.
type IngestJobRepository interface {
	// EnsureSchema provisions the backing table if it does not exist.
	EnsureSchema(ctx context.Context) error

	Enqueue(ctx context.Context, job *IngestJob) error

	// AcquireNextJob atomically claims the oldest new job, marking it
	// processing. Returns nil, nil when the queue is empty.
	AcquireNextJob(ctx context.Context) (*IngestJob, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error
}
