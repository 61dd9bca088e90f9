package retrieval

import (
	"context"
	"log/slog"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

// classifyTopic runs the topic classifier over the stopword-stripped query.
// A prediction becomes a hard filter only when its score reaches the
// threshold (inclusive); below it the topic is discarded entirely rather
// than applied as a weak filter. Failures degrade to no topic.
func classifyTopic(ctx context.Context, query string, classifier domain.TopicClassifier, threshold float64, logger *slog.Logger) *domain.TopicPrediction {
	if classifier == nil {
		return nil
	}

	stripped := stripStopwords(query)
	if stripped == "" {
		stripped = query
	}

	pred, err := classifier.Classify(ctx, stripped)
	if err != nil {
		logger.Warn("topic_classification_failed",
			slog.String("query", truncate(query, 100)),
			slog.String("error", err.Error()))
		return nil
	}

	if pred.Score < threshold {
		logger.Info("topic_below_threshold",
			slog.String("label", pred.Label),
			slog.Float64("score", pred.Score),
			slog.Float64("threshold", threshold))
		return nil
	}
	return &pred
}
