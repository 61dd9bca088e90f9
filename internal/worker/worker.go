package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
	"github.com/LegislAI/legislai-be-sub000/internal/usecase"
)

const jobTimeout = 120 * time.Second

// Config holds worker tuning parameters.
type Config struct {
	// PollInterval is the idle polling cadence.
	PollInterval time.Duration
	// InitialBackoff is the delay after the first consecutive failure.
	InitialBackoff time.Duration
	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration
}

// DefaultConfig returns production polling defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:   5 * time.Second,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     60 * time.Second,
	}
}

// IngestWorker drains the ingest job queue: it claims one job at a time,
// runs the indexing usecase, and records the outcome. Consecutive failures
// back the polling off exponentially.
type IngestWorker struct {
	jobRepo       domain.IngestJobRepository
	ingestUsecase usecase.IngestUsecase
	cfg           Config
	logger        *slog.Logger
	stopChan      chan struct{}
	backoff       time.Duration
}

// NewIngestWorker creates a new IngestWorker.
func NewIngestWorker(
	jobRepo domain.IngestJobRepository,
	ingestUsecase usecase.IngestUsecase,
	cfg Config,
	logger *slog.Logger,
) *IngestWorker {
	return &IngestWorker{
		jobRepo:       jobRepo,
		ingestUsecase: ingestUsecase,
		cfg:           cfg,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

func (w *IngestWorker) Start() {
	w.logger.Info("ingest_worker_started",
		slog.Duration("poll_interval", w.cfg.PollInterval))
	go w.run()
}

func (w *IngestWorker) Stop() {
	w.logger.Info("ingest_worker_stopping")
	close(w.stopChan)
}

func (w *IngestWorker) run() {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processNextJob()
			if w.backoff > 0 {
				ticker.Reset(w.backoff)
			} else {
				ticker.Reset(w.cfg.PollInterval)
			}
		}
	}
}

func (w *IngestWorker) processNextJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	job, err := w.jobRepo.AcquireNextJob(ctx)
	if err != nil {
		w.logger.Error("job_acquire_failed", slog.String("error", err.Error()))
		w.backoff = w.nextBackoff(w.backoff)
		return
	}
	if job == nil {
		return
	}

	w.logger.Info("job_processing",
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.JobType))

	var processErr error
	switch job.JobType {
	case domain.JobTypeIndexDocument:
		processErr = w.processIndexDocument(ctx, job)
	default:
		processErr = fmt.Errorf("unknown job type: %s", job.JobType)
	}

	status := domain.JobStatusCompleted
	var errMsg *string
	if processErr != nil {
		status = domain.JobStatusFailed
		msg := processErr.Error()
		errMsg = &msg
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Warn("job_failed",
			slog.String("job_id", job.ID.String()),
			slog.Duration("backoff", w.backoff),
			slog.String("error", processErr.Error()))
	} else {
		w.backoff = 0
		w.logger.Info("job_completed", slog.String("job_id", job.ID.String()))
	}

	if err := w.jobRepo.UpdateStatus(ctx, job.ID, status, errMsg); err != nil {
		w.logger.Error("job_status_update_failed",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
	}
}

// indexDocumentPayload mirrors the enqueue payload shape.
type indexDocumentPayload struct {
	LawName  string               `json:"law_name"`
	Title    string               `json:"title"`
	Text     string               `json:"text"`
	Metadata domain.ChunkMetadata `json:"metadata"`
}

func (w *IngestWorker) processIndexDocument(ctx context.Context, job *domain.IngestJob) error {
	raw, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("re-marshal payload: %w", err)
	}
	var payload indexDocumentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	chunkCount, err := w.ingestUsecase.Upsert(ctx, usecase.IngestDocumentInput{
		LawName:  payload.LawName,
		Title:    payload.Title,
		Text:     payload.Text,
		Metadata: payload.Metadata,
	})
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}

	w.logger.Info("document_ingested",
		slog.String("job_id", job.ID.String()),
		slog.String("law_name", payload.LawName),
		slog.Int("chunk_count", chunkCount))
	return nil
}

func (w *IngestWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return w.cfg.InitialBackoff
	}
	next := current * 2
	if next > w.cfg.MaxBackoff {
		return w.cfg.MaxBackoff
	}
	return next
}
