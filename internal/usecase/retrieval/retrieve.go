package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

// RetrieveConfig holds multi-source retrieval stage parameters.
type RetrieveConfig struct {
	// PerQueryTopK is the number of hits requested per sub-query.
	PerQueryTopK int
	// QueryTimeout bounds each embed+search sub-query.
	QueryTimeout time.Duration
}

// Retrieve fans the original query plus all expansions out against the vector
// index concurrently and merges the per-query result sets into the candidate
// pool (Stage 2). A failed sub-query contributes zero candidates and a
// warning; siblings are unaffected. Only when every sub-query fails does the
// stage return an error, wrapping ErrIndexUnavailable when the index itself
// was the cause.
func Retrieve(
	ctx context.Context,
	sc *StageContext,
	embedder domain.EmbeddingProvider,
	index domain.VectorIndex,
	cfg RetrieveConfig,
	logger *slog.Logger,
) error {
	queries := make([]string, 0, 1+len(sc.ExpandedQueries))
	queries = append(queries, sc.Query)
	queries = append(queries, sc.ExpandedQueries...)

	start := time.Now()

	// Results land in per-query slots so the merge below runs in query order
	// regardless of completion order. That keeps the pool's insertion order
	// deterministic: original hits first.
	hits := make([][]domain.VectorHit, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(idx int, query string) {
			defer wg.Done()
			hits[idx], errs[idx] = searchOne(ctx, query, embedder, index, sc.Filter, cfg)
		}(i, q)
	}
	wg.Wait()

	sc.Pool = NewCandidatePool()
	succeeded := 0
	var lastErr error
	for i, err := range errs {
		if err != nil {
			lastErr = err
			logger.Warn("sub_query_failed",
				slog.String("retrieval_id", sc.RetrievalID),
				slog.String("query", truncate(queries[i], 100)),
				slog.String("error", err.Error()))
			continue
		}
		succeeded++
		for _, hit := range hits[i] {
			sc.Pool.Add(hit)
		}
	}

	if succeeded == 0 {
		if errors.Is(lastErr, domain.ErrIndexUnavailable) {
			return fmt.Errorf("all %d sub-queries failed: %w", len(queries), domain.ErrIndexUnavailable)
		}
		return fmt.Errorf("all %d sub-queries failed: %w", len(queries), lastErr)
	}

	if succeeded < len(queries) {
		logger.Warn("partial_retrieval",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.Int("requested", len(queries)),
			slog.Int("succeeded", succeeded))
	}

	logger.Info("multi_source_retrieval_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("query_count", len(queries)),
		slog.Int("pool_size", sc.Pool.Len()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

// searchOne embeds one query (dense and sparse) and runs a hybrid search.
func searchOne(
	ctx context.Context,
	query string,
	embedder domain.EmbeddingProvider,
	index domain.VectorIndex,
	filter domain.QueryFilter,
	cfg RetrieveConfig,
) ([]domain.VectorHit, error) {
	queryCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()

	dense, err := embedder.EmbedDense(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("dense embedding: %w", err)
	}
	sparse, err := embedder.EmbedSparse(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("sparse embedding: %w", err)
	}

	return index.Query(queryCtx, dense, sparse, filter, cfg.PerQueryTopK)
}
