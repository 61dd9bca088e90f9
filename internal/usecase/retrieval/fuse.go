package retrieval

import (
	"log/slog"
	"sort"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

// FusionConfig holds the static per-source fusion weights.
type FusionConfig struct {
	// Weight multiplies each normalized signal. The three terms share one
	// static weight; the weights do not need to sum to 1.
	Weight float64
}

// Fuse combines the three relevance signals into the final ranking
// (Stage 4). The fused score is a pure function of the sub-scores and the
// weight: absent sub-scores are 0, each signal is max-normalized over the
// pool, and recomputing from the same inputs reproduces the same output.
// Ties keep pool insertion order, i.e. the original query's direct hits
// first. The result carries each doc ID at most once and at most topK rows.
func Fuse(sc *StageContext, cfg FusionConfig, logger *slog.Logger) domain.RankedResultList {
	items := sc.Pool.Items()
	if len(items) == 0 {
		return domain.RankedResultList{}
	}

	var maxDB, maxBM25, maxLLM float64
	for _, cand := range items {
		maxDB = max(maxDB, cand.DatabaseScore)
		maxBM25 = max(maxBM25, cand.BM25Score)
		maxLLM = max(maxLLM, cand.LLMScore)
	}

	ranked := make(domain.RankedResultList, len(items))
	for i, cand := range items {
		c := *cand
		c.FinalScore = cfg.Weight*normalize(c.DatabaseScore, maxDB) +
			cfg.Weight*normalize(c.BM25Score, maxBM25) +
			cfg.Weight*normalize(c.LLMScore, maxLLM)
		ranked[i] = c
	}

	// Stable sort preserves insertion order on equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	if sc.TopK > 0 && len(ranked) > sc.TopK {
		ranked = ranked[:sc.TopK]
	}

	logger.Info("fusion_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("pool_size", len(items)),
		slog.Int("returned", len(ranked)),
		slog.Float64("weight", cfg.Weight))
	return ranked
}

// normalize maps score into [0, 1] against the pool maximum. A zero maximum
// means the signal contributed nothing to any candidate.
func normalize(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return score / maxScore
}
