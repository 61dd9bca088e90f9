package retrieval

import (
	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	"github.com/google/uuid"
)

// AdditionalData carries query attributes extracted by preprocessing that are
// not hard filters: a one-line summary and the legal subject of the question.
type AdditionalData struct {
	Summary string
	Subject string
}

// StageContext carries data between pipeline stages for one retrieval request.
type StageContext struct {
	// Input
	RetrievalID string
	Query       string
	TopK        int

	// Preprocess outputs
	ExpandedQueries []string
	Filter          domain.QueryFilter
	Additional      AdditionalData
	Topic           *domain.TopicPrediction

	// Retrieval output
	Pool *CandidatePool

	// Fuser intermediate signals, indexed like Pool.Items()
	BM25Scores []float64
}

// CandidatePool is the deduplicated candidate set keyed by doc ID.
// Insertion order is preserved: it is the tie-break order for fusion, with the
// original query's direct hits first.
type CandidatePool struct {
	order []uuid.UUID
	byID  map[uuid.UUID]*domain.CandidateResult
}

// NewCandidatePool returns an empty pool.
func NewCandidatePool() *CandidatePool {
	return &CandidatePool{byID: make(map[uuid.UUID]*domain.CandidateResult)}
}

// Add merges a vector hit into the pool. A doc seen twice keeps the higher
// database score; on ties the first-seen occurrence wins, so insertion order
// never changes once a doc is present.
func (p *CandidatePool) Add(hit domain.VectorHit) {
	if existing, ok := p.byID[hit.DocID]; ok {
		if hit.Score > existing.DatabaseScore {
			existing.DatabaseScore = hit.Score
		}
		return
	}
	p.order = append(p.order, hit.DocID)
	p.byID[hit.DocID] = &domain.CandidateResult{
		DocID:         hit.DocID,
		Metadata:      hit.Metadata,
		Text:          hit.Text,
		DatabaseScore: hit.Score,
	}
}

// Len returns the number of unique candidates.
func (p *CandidatePool) Len() int {
	return len(p.order)
}

// Items returns the candidates in insertion order. The returned pointers are
// the pool's own entries; scoring stages write through them, one writer per
// candidate per signal.
func (p *CandidatePool) Items() []*domain.CandidateResult {
	items := make([]*domain.CandidateResult, len(p.order))
	for i, id := range p.order {
		items[i] = p.byID[id]
	}
	return items
}
