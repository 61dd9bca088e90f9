package usecase

import (
	"context"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

// AnswerInput encapsulates the parameters that drive a grounded answer request.
type AnswerInput struct {
	Query string
	TopK  int
	// Filter, when set, overlays extracted metadata: caller fields win.
	Filter *domain.QueryFilter
}

// AnswerOutput is the non-streaming answer response.
type AnswerOutput struct {
	Answer    string
	Citations []Citation
	Fallback  bool
	Reason    string
	Debug     AnswerDebug
}

// Citation connects an answer passage to the chunk it was grounded on.
type Citation struct {
	DocID   string
	Title   string
	LawName string
	URL     string
	Excerpt string
	Score   float64
}

// AnswerDebug surfaces pipeline metadata that aids troubleshooting.
type AnswerDebug struct {
	RetrievalID     string
	ExpandedQueries []string
	Filter          domain.QueryFilter
}

// AnswerUsecase defines the contract for generating grounded answers.
type AnswerUsecase interface {
	Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error)
	Stream(ctx context.Context, input AnswerInput) <-chan StreamEvent
}

type StreamEventKind string

const (
	StreamEventKindMeta     StreamEventKind = "meta"
	StreamEventKindDelta    StreamEventKind = "delta"
	StreamEventKindDone     StreamEventKind = "done"
	StreamEventKindFallback StreamEventKind = "fallback"
	StreamEventKindError    StreamEventKind = "error"
)

// StreamEvent is one typed frame of a streaming answer.
type StreamEvent struct {
	Kind    StreamEventKind
	Payload interface{}
}

// StreamMeta is the first frame: the citations the answer will draw on.
type StreamMeta struct {
	Citations []Citation
	Debug     AnswerDebug
}

// StreamDelta carries one batch of answer text.
type StreamDelta struct {
	Text string
}

// FallbackCategory classifies why a fallback was triggered.
type FallbackCategory string

const (
	FallbackRetrievalEmpty   FallbackCategory = "retrieval_empty"
	FallbackGenerationFailed FallbackCategory = "generation_failed"
)

// StreamFallback explains a degraded answer.
type StreamFallback struct {
	Category FallbackCategory
	Reason   string
}
