package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// JudgeConfig holds LLM relevance-scoring stage parameters.
type JudgeConfig struct {
	// MaxConcurrent bounds the per-candidate call fan-out.
	MaxConcurrent int
	// RequestsPerSecond throttles calls against the LLM API.
	RequestsPerSecond float64
	// CallTimeout bounds each individual scoring call.
	CallTimeout time.Duration
	// DefaultScore is assigned when the model expresses uncertainty.
	DefaultScore float64
	// LowConfidenceFloor marks candidates scored below it (exclusive).
	LowConfidenceFloor float64
	// Temperature for the scoring calls.
	Temperature float64
}

// judgeVerdict is the structured object the scoring prompt asks for.
type judgeVerdict struct {
	Score     float64 `json:"score"`
	Uncertain bool    `json:"uncertain"`
}

const judgePrompt = `Avalia a relevância do excerto legal para a pergunta, de 0 a 100.
Responde APENAS com um objeto JSON entre marcadores <json> e </json> com as
chaves "score" (número 0-100) e "uncertain" (true se não tiveres a certeza).

Exemplo:
<json>{"score": 85, "uncertain": false}</json>`

// ScoreWithLLM issues one relevance-rating call per candidate concurrently
// (Stage 3b). Each goroutine owns exactly one candidate's LLMScore, so writes
// never race. A failed or timed-out call degrades that single candidate to
// score 0; uncertainty degrades to DefaultScore; a score below
// LowConfidenceFloor flags the candidate without dropping it.
func ScoreWithLLM(
	ctx context.Context,
	sc *StageContext,
	llm domain.LLMClient,
	cfg JudgeConfig,
	logger *slog.Logger,
) {
	items := sc.Pool.Items()
	if len(items) == 0 {
		return
	}

	start := time.Now()
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.MaxConcurrent)

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrent)

	for _, cand := range items {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				cand.LLMScore = 0
				cand.LowConfidence = true
				failed.Add(1)
				return nil
			}

			score, ok := judgeOne(gctx, sc.Query, cand.Text, llm, cfg, logger)
			if !ok {
				cand.LLMScore = 0
				cand.LowConfidence = true
				failed.Add(1)
				return nil
			}
			cand.LLMScore = score
			cand.LowConfidence = score < cfg.LowConfidenceFloor
			return nil
		})
	}
	// Goroutines only ever return nil; the group is the join barrier.
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		logger.Warn("partial_llm_scoring",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.Int("pool_size", len(items)),
			slog.Int64("failed", n))
	}
	logger.Info("llm_scoring_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("pool_size", len(items)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
}

// judgeOne rates a single candidate. The boolean is false only for transport
// failures; malformed output resolves to the documented defaults here.
func judgeOne(ctx context.Context, query, text string, llm domain.LLMClient, cfg JudgeConfig, logger *slog.Logger) (float64, bool) {
	callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
	defer cancel()

	messages := []domain.ChatMessage{
		{Role: "system", Content: judgePrompt},
		{Role: "user", Content: fmt.Sprintf("Pergunta: %s\n\nExcerto: %s", query, text)},
	}

	raw, err := llm.Complete(callCtx, messages, cfg.Temperature)
	if err != nil {
		return 0, false
	}

	parsed := parseModelPayload[judgeVerdict](raw)
	if !parsed.OK {
		// Malformed output is treated as the model being unsure, not as a
		// transport failure.
		logger.Debug("judge_output_unparsable", slog.String("raw", truncate(raw, 120)))
		return cfg.DefaultScore, true
	}

	v := parsed.Val
	if v.Uncertain || v.Score < 0 || v.Score > 100 {
		return cfg.DefaultScore, true
	}
	return v.Score, true
}
