package domain

import "context"

// TopicPrediction is the single highest-scoring label for a query.
type TopicPrediction struct {
	Label string
	Score float64
}

// TopicClassifier runs a trained text classifier over a preprocessed query.
// Whether a prediction becomes a hard filter is decided by the caller against
// a confidence threshold; low-confidence labels are discarded, never applied.
type TopicClassifier interface {
	Classify(ctx context.Context, text string) (TopicPrediction, error)
}
