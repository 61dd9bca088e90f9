package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
	"github.com/LegislAI/legislai-be-sub000/internal/usecase/retrieval"

	"github.com/google/uuid"
)

// RetrieveAndRankInput defines the input parameters for RetrieveAndRank.
type RetrieveAndRankInput struct {
	Query string
	// TopK overrides the configured result count when positive.
	TopK int
	// Filter, when set, overlays extracted metadata: caller fields win.
	Filter *domain.QueryFilter
}

// RetrieveAndRankOutput defines the output for RetrieveAndRank.
type RetrieveAndRankOutput struct {
	RetrievalID string
	Results     domain.RankedResultList
	// ExpandedQueries and Filter expose what the pipeline actually searched
	// with, for response debugging.
	ExpandedQueries []string
	Filter          domain.QueryFilter
	Subject         string
}

// RetrieveAndRankUsecase defines the interface for the retrieval pipeline.
type RetrieveAndRankUsecase interface {
	Execute(ctx context.Context, input RetrieveAndRankInput) (*RetrieveAndRankOutput, error)
}

type retrieveAndRankUsecase struct {
	embedder   domain.EmbeddingProvider
	index      domain.VectorIndex
	llmClient  domain.LLMClient
	classifier domain.TopicClassifier
	cfg        RetrievalConfig
	logger     *slog.Logger
}

// NewRetrieveAndRankUsecase creates a new RetrieveAndRankUsecase.
func NewRetrieveAndRankUsecase(
	embedder domain.EmbeddingProvider,
	index domain.VectorIndex,
	llmClient domain.LLMClient,
	classifier domain.TopicClassifier,
	cfg RetrievalConfig,
	logger *slog.Logger,
) RetrieveAndRankUsecase {
	return &retrieveAndRankUsecase{
		embedder:   embedder,
		index:      index,
		llmClient:  llmClient,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Execute runs the four-stage pipeline: preprocess, multi-source retrieval,
// dual scoring, fusion. Model-quality failures degrade inside their stages;
// only resource-level failures (index down, all sub-queries failed) surface
// as errors here.
func (u *retrieveAndRankUsecase) Execute(ctx context.Context, input RetrieveAndRankInput) (*RetrieveAndRankOutput, error) {
	if input.Query == "" {
		return nil, fmt.Errorf("query is empty")
	}

	topK := u.cfg.TopK
	if input.TopK > 0 {
		topK = input.TopK
	}

	sc := &retrieval.StageContext{
		RetrievalID: uuid.NewString(),
		Query:       input.Query,
		TopK:        topK,
	}
	start := time.Now()

	retrieval.Preprocess(ctx, sc, u.llmClient, u.classifier, u.cfg.Preprocess, u.logger)

	if input.Filter != nil {
		sc.Filter = sc.Filter.Merge(*input.Filter)
	}

	if err := retrieval.Retrieve(ctx, sc, u.embedder, u.index, u.cfg.Retrieve, u.logger); err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	retrieval.ScoreBM25(sc, u.logger)
	retrieval.ScoreWithLLM(ctx, sc, u.llmClient, u.cfg.Judge, u.logger)

	results := retrieval.Fuse(sc, u.cfg.Fusion, u.logger)

	u.logger.Info("retrieve_and_rank_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("result_count", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &RetrieveAndRankOutput{
		RetrievalID:     sc.RetrievalID,
		Results:         results,
		ExpandedQueries: sc.ExpandedQueries,
		Filter:          sc.Filter,
		Subject:         sc.Additional.Subject,
	}, nil
}
