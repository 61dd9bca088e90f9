package domain

import (
	"context"

	"github.com/google/uuid"
)

// VectorHit is one row returned by a hybrid query, ordered by blended score.
type VectorHit struct {
	DocID    uuid.UUID
	Metadata ChunkMetadata
	Text     string
	Score    float64
}

// VectorIndex persists document chunks and answers hybrid similarity queries.
// Query blends dense and sparse similarity with a convex coefficient owned by
// the implementation. Upsert is idempotent by chunk ID.
type VectorIndex interface {
	// CreateIfAbsent provisions the collection for the given dense dimension.
	CreateIfAbsent(ctx context.Context, dimension int) error

	// Upsert inserts or replaces a chunk by ID.
	Upsert(ctx context.Context, chunk DocumentChunk) error

	// Query returns at most topK hits matching filter, descending blended
	// score. An unreachable or missing collection yields ErrIndexUnavailable,
	// never an empty result set.
	Query(ctx context.Context, dense []float32, sparse map[int32]float32, filter QueryFilter, topK int) ([]VectorHit, error)
}
