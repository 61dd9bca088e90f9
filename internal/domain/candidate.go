package domain

import "github.com/google/uuid"

// CandidateResult is one chunk surviving the retrieval pool, carrying the
// three independent relevance signals plus their fused score.
type CandidateResult struct {
	DocID    uuid.UUID
	Metadata ChunkMetadata
	Text     string

	// DatabaseScore is the blended similarity returned by the vector index.
	DatabaseScore float64
	// BM25Score is the lexical score computed over the candidate pool.
	BM25Score float64
	// LLMScore is the model-judged relevance in [0, 100]; 0 when the call failed.
	LLMScore float64
	// FinalScore is the weighted combination of the three normalized signals.
	FinalScore float64

	// LowConfidence marks candidates the judge scored below the confidence
	// floor. They are flagged, not dropped; dropping is a caller policy.
	LowConfidence bool
}

// RankedResultList is the fused output, descending FinalScore, no duplicate IDs.
type RankedResultList []CandidateResult
