package domain

import "context"

// EmbeddingProvider wraps the dense (semantic) and sparse (term-weighted)
// embedding models. Implementations must be deterministic for a fixed model
// version and wrap transport failures in ErrEmbedding.
type EmbeddingProvider interface {
	// EmbedDense returns the fixed-length semantic vector for text.
	EmbedDense(ctx context.Context, text string) ([]float32, error)

	// EmbedSparse returns token-id to weight pairs for text.
	EmbedSparse(ctx context.Context, text string) (map[int32]float32, error)

	// EmbedDenseBatch embeds texts preserving input order.
	EmbedDenseBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Version identifies the embedding model for logging and index bookkeeping.
	Version() string
}
