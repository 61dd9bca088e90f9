package retrieval

import (
	"context"
	"log/slog"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	"golang.org/x/sync/errgroup"
)

// PreprocessConfig holds preprocessing stage parameters.
type PreprocessConfig struct {
	// BranchTimeout bounds each of the three concurrent branches.
	BranchTimeout time.Duration
	// TopicThreshold is the inclusive confidence floor for applying a
	// classified topic as a hard filter.
	TopicThreshold float64
	// Temperature is passed to the expansion and extraction LLM calls.
	Temperature float64
}

// Preprocess runs query expansion, metadata extraction, and topic
// classification concurrently (Stage 1) and joins their outputs into the
// stage context. Branch failures are isolated: each degrades to its
// documented default without affecting siblings, so Preprocess itself
// never fails.
func Preprocess(
	ctx context.Context,
	sc *StageContext,
	llm domain.LLMClient,
	classifier domain.TopicClassifier,
	cfg PreprocessConfig,
	logger *slog.Logger,
) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		branchCtx, cancel := context.WithTimeout(gctx, cfg.BranchTimeout)
		defer cancel()
		sc.ExpandedQueries = expandQuery(branchCtx, sc.Query, llm, cfg.Temperature, logger)
		return nil
	})

	g.Go(func() error {
		branchCtx, cancel := context.WithTimeout(gctx, cfg.BranchTimeout)
		defer cancel()
		filter, additional := extractMetadata(branchCtx, sc.Query, llm, cfg.Temperature, time.Now(), logger)
		sc.Filter = filter
		sc.Additional = additional
		return nil
	})

	g.Go(func() error {
		branchCtx, cancel := context.WithTimeout(gctx, cfg.BranchTimeout)
		defer cancel()
		sc.Topic = classifyTopic(branchCtx, sc.Query, classifier, cfg.TopicThreshold, logger)
		return nil
	})

	// Branches only ever return nil; the group is the join barrier.
	_ = g.Wait()

	if sc.Topic != nil {
		sc.Filter.Theme = sc.Topic.Label
	}

	logger.Info("preprocess_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("expanded_count", len(sc.ExpandedQueries)),
		slog.Bool("has_topic", sc.Topic != nil),
		slog.Bool("filter_empty", sc.Filter.IsEmpty()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
}
