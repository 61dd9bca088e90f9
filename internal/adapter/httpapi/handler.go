package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
	"github.com/LegislAI/legislai-be-sub000/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	retrieveUsecase usecase.RetrieveAndRankUsecase
	answerUsecase   usecase.AnswerUsecase
	jobRepo         domain.IngestJobRepository
	readyCheck      func(ctx echo.Context) error
}

func NewHandler(
	retrieveUsecase usecase.RetrieveAndRankUsecase,
	answerUsecase usecase.AnswerUsecase,
	jobRepo domain.IngestJobRepository,
	readyCheck func(ctx echo.Context) error,
) *Handler {
	return &Handler{
		retrieveUsecase: retrieveUsecase,
		answerUsecase:   answerUsecase,
		jobRepo:         jobRepo,
		readyCheck:      readyCheck,
	}
}

// Register mounts all routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
	e.POST("/v1/retrieve", h.Retrieve)
	e.POST("/v1/answer", h.Answer)
	e.POST("/internal/ingest", h.EnqueueIngest)
}

type retrieveRequest struct {
	Query  string            `json:"query"`
	TopK   int               `json:"top_k"`
	Filter map[string]string `json:"metadata_filter"`
}

type retrievedResult struct {
	DocID         string               `json:"doc_id"`
	Text          string               `json:"text"`
	Metadata      domain.ChunkMetadata `json:"metadata"`
	Score         float64              `json:"score"`
	LowConfidence bool                 `json:"low_confidence,omitempty"`
}

type retrieveResponse struct {
	RetrievalID     string            `json:"retrieval_id"`
	Results         []retrievedResult `json:"results"`
	ExpandedQueries []string          `json:"expanded_queries,omitempty"`
	Filter          map[string]string `json:"metadata_filter,omitempty"`
}

// Retrieve runs the ranking pipeline and returns the fused results.
// (POST /v1/retrieve)
func (h *Handler) Retrieve(ctx echo.Context) error {
	var req retrieveRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	input := usecase.RetrieveAndRankInput{
		Query:  req.Query,
		TopK:   req.TopK,
		Filter: filterFromMap(req.Filter),
	}

	output, err := h.retrieveUsecase.Execute(ctx.Request().Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrIndexUnavailable) {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": "index unavailable"})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	results := make([]retrievedResult, 0, len(output.Results))
	for _, r := range output.Results {
		results = append(results, retrievedResult{
			DocID:         r.DocID.String(),
			Text:          r.Text,
			Metadata:      r.Metadata,
			Score:         r.FinalScore,
			LowConfidence: r.LowConfidence,
		})
	}

	return ctx.JSON(http.StatusOK, retrieveResponse{
		RetrievalID:     output.RetrievalID,
		Results:         results,
		ExpandedQueries: output.ExpandedQueries,
		Filter:          output.Filter.Fields(),
	})
}

type answerRequest struct {
	Query  string            `json:"query"`
	TopK   int               `json:"top_k"`
	Filter map[string]string `json:"metadata_filter"`
}

// Answer streams a grounded answer over server-sent events: one meta frame
// with citations, then delta frames, then done.
// (POST /v1/answer)
func (h *Handler) Answer(ctx echo.Context) error {
	var req answerRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	events := h.answerUsecase.Stream(ctx.Request().Context(), usecase.AnswerInput{
		Query:  req.Query,
		TopK:   req.TopK,
		Filter: filterFromMap(req.Filter),
	})

	enc := newSSEWriter(res)
	for ev := range events {
		if err := enc.write(string(ev.Kind), ev.Payload); err != nil {
			return nil // client went away
		}
		res.Flush()
	}
	return nil
}

type ingestRequest struct {
	LawName  string               `json:"law_name"`
	Title    string               `json:"title"`
	Text     string               `json:"text"`
	Metadata domain.ChunkMetadata `json:"metadata"`
}

// EnqueueIngest queues a document for asynchronous indexing.
// (POST /internal/ingest)
func (h *Handler) EnqueueIngest(ctx echo.Context) error {
	var req ingestRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Text == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}
	if req.LawName == "" && req.Title == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "law_name or title is required"})
	}

	now := time.Now()
	job := &domain.IngestJob{
		ID:      uuid.New(),
		JobType: domain.JobTypeIndexDocument,
		Payload: map[string]interface{}{
			"law_name": req.LawName,
			"title":    req.Title,
			"text":     req.Text,
			"metadata": req.Metadata,
		},
		Status:    domain.JobStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.jobRepo.Enqueue(ctx.Request().Context(), job); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusAccepted, map[string]string{
		"job_id": job.ID.String(),
		"status": job.Status,
	})
}

// Healthz reports process liveness.
// (GET /healthz)
func (h *Handler) Healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports dependency readiness.
// (GET /readyz)
func (h *Handler) Readyz(ctx echo.Context) error {
	if h.readyCheck != nil {
		if err := h.readyCheck(ctx); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
		}
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func filterFromMap(m map[string]string) *domain.QueryFilter {
	if len(m) == 0 {
		return nil
	}
	return &domain.QueryFilter{
		Theme:           m["theme"],
		LegislationDate: m["legislation_date"],
		Region:          m["region"],
	}
}

type sseWriter struct {
	res *echo.Response
}

func newSSEWriter(res *echo.Response) *sseWriter {
	return &sseWriter{res: res}
}

func (w *sseWriter) write(event string, payload interface{}) error {
	if _, err := fmt.Fprintf(w.res, "event: %s\n", event); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w.res, "data: %s\n\n", data)
	return err
}
