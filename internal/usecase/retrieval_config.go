package usecase

import (
	"fmt"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/usecase/retrieval"
)

// RetrievalConfig aggregates the per-stage settings of the pipeline. One
// value is built at startup from the environment and shared read-only by
// every request.
type RetrievalConfig struct {
	// TopK is the number of fused results returned to the caller.
	TopK int

	Preprocess retrieval.PreprocessConfig
	Retrieve   retrieval.RetrieveConfig
	Judge      retrieval.JudgeConfig
	Fusion     retrieval.FusionConfig
}

// DefaultRetrievalConfig returns the production defaults.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK: 10,
		Preprocess: retrieval.PreprocessConfig{
			BranchTimeout:  10 * time.Second,
			TopicThreshold: 0.8,
			Temperature:    0.1,
		},
		Retrieve: retrieval.RetrieveConfig{
			PerQueryTopK: 20,
			QueryTimeout: 15 * time.Second,
		},
		Judge: retrieval.JudgeConfig{
			MaxConcurrent:      8,
			RequestsPerSecond:  10,
			CallTimeout:        20 * time.Second,
			DefaultScore:       80,
			LowConfidenceFloor: 70,
			Temperature:        0,
		},
		Fusion: retrieval.FusionConfig{
			Weight: 0.3,
		},
	}
}

// Validate checks the configuration is internally consistent.
func (c RetrievalConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("topK must be positive, got %d", c.TopK)
	}
	if c.Preprocess.BranchTimeout <= 0 {
		return fmt.Errorf("preprocess branch timeout must be positive, got %v", c.Preprocess.BranchTimeout)
	}
	if c.Preprocess.TopicThreshold < 0.0 || c.Preprocess.TopicThreshold > 1.0 {
		return fmt.Errorf("topic threshold must be in [0.0, 1.0], got %f", c.Preprocess.TopicThreshold)
	}
	if c.Retrieve.PerQueryTopK <= 0 {
		return fmt.Errorf("per-query topK must be positive, got %d", c.Retrieve.PerQueryTopK)
	}
	if c.Retrieve.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive, got %v", c.Retrieve.QueryTimeout)
	}
	if c.Judge.MaxConcurrent <= 0 {
		return fmt.Errorf("judge concurrency must be positive, got %d", c.Judge.MaxConcurrent)
	}
	if c.Judge.RequestsPerSecond <= 0 {
		return fmt.Errorf("judge rate must be positive, got %f", c.Judge.RequestsPerSecond)
	}
	if c.Judge.DefaultScore < 0 || c.Judge.DefaultScore > 100 {
		return fmt.Errorf("judge default score must be in [0, 100], got %f", c.Judge.DefaultScore)
	}
	if c.Judge.LowConfidenceFloor < 0 || c.Judge.LowConfidenceFloor > 100 {
		return fmt.Errorf("low-confidence floor must be in [0, 100], got %f", c.Judge.LowConfidenceFloor)
	}
	if c.Fusion.Weight <= 0 {
		return fmt.Errorf("fusion weight must be positive, got %f", c.Fusion.Weight)
	}
	return nil
}
