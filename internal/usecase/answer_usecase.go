package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

type answerUsecase struct {
	retriever RetrieveAndRankUsecase
	llmClient domain.LLMClient
	builder   PromptBuilder
	logger    *slog.Logger
}

// NewAnswerUsecase creates a new AnswerUsecase on top of the retrieval
// pipeline.
func NewAnswerUsecase(
	retriever RetrieveAndRankUsecase,
	llmClient domain.LLMClient,
	builder PromptBuilder,
	logger *slog.Logger,
) AnswerUsecase {
	return &answerUsecase{
		retriever: retriever,
		llmClient: llmClient,
		builder:   builder,
		logger:    logger,
	}
}

// Execute retrieves context and generates a cited answer in one shot.
func (u *answerUsecase) Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	retrieved, citations, err := u.retrieve(ctx, input)
	if err != nil {
		return nil, err
	}
	debug := AnswerDebug{
		RetrievalID:     retrieved.RetrievalID,
		ExpandedQueries: retrieved.ExpandedQueries,
		Filter:          retrieved.Filter,
	}

	if len(citations) == 0 {
		return &AnswerOutput{
			Fallback: true,
			Reason:   "nenhum excerto relevante encontrado",
			Debug:    debug,
		}, nil
	}

	messages, err := u.buildPrompt(input.Query, retrieved)
	if err != nil {
		return nil, err
	}

	answer, err := u.llmClient.Complete(ctx, messages, 0.2)
	if err != nil {
		u.logger.Warn("answer_generation_failed",
			slog.String("retrieval_id", retrieved.RetrievalID),
			slog.String("error", err.Error()))
		return &AnswerOutput{
			Citations: citations,
			Fallback:  true,
			Reason:    "geração de resposta indisponível",
			Debug:     debug,
		}, nil
	}

	return &AnswerOutput{
		Answer:    strings.TrimSpace(answer),
		Citations: citations,
		Debug:     debug,
	}, nil
}

// Stream retrieves context and streams the generated answer as typed events:
// one meta frame with the citations, then delta frames, then done. Fallback
// and error frames terminate the stream early. The channel is always closed.
// Every send races against ctx so a consumer that stops reading (client
// disconnect) releases the producer instead of parking it on a full buffer.
func (u *answerUsecase) Stream(ctx context.Context, input AnswerInput) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)

	go func() {
		defer close(events)

		emit := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		retrieved, citations, err := u.retrieve(ctx, input)
		if err != nil {
			emit(StreamEvent{Kind: StreamEventKindError, Payload: err.Error()})
			return
		}
		debug := AnswerDebug{
			RetrievalID:     retrieved.RetrievalID,
			ExpandedQueries: retrieved.ExpandedQueries,
			Filter:          retrieved.Filter,
		}

		if !emit(StreamEvent{Kind: StreamEventKindMeta, Payload: StreamMeta{
			Citations: citations,
			Debug:     debug,
		}}) {
			return
		}

		if len(citations) == 0 {
			emit(StreamEvent{Kind: StreamEventKindFallback, Payload: StreamFallback{
				Category: FallbackRetrievalEmpty,
				Reason:   "nenhum excerto relevante encontrado",
			}})
			return
		}

		messages, err := u.buildPrompt(input.Query, retrieved)
		if err != nil {
			emit(StreamEvent{Kind: StreamEventKindError, Payload: err.Error()})
			return
		}

		chunks, errs, err := u.llmClient.CompleteStream(ctx, messages, 0.2)
		if err != nil {
			emit(StreamEvent{Kind: StreamEventKindFallback, Payload: StreamFallback{
				Category: FallbackGenerationFailed,
				Reason:   err.Error(),
			}})
			return
		}

		for {
			select {
			case <-ctx.Done():
				emit(StreamEvent{Kind: StreamEventKindError, Payload: ctx.Err().Error()})
				return
			case genErr, ok := <-errs:
				if ok && genErr != nil {
					u.logger.Warn("answer_stream_failed",
						slog.String("retrieval_id", retrieved.RetrievalID),
						slog.String("error", genErr.Error()))
					emit(StreamEvent{Kind: StreamEventKindFallback, Payload: StreamFallback{
						Category: FallbackGenerationFailed,
						Reason:   genErr.Error(),
					}})
					return
				}
			case chunk, ok := <-chunks:
				if !ok || chunk.Done {
					emit(StreamEvent{Kind: StreamEventKindDone})
					return
				}
				if chunk.Text != "" {
					if !emit(StreamEvent{Kind: StreamEventKindDelta, Payload: StreamDelta{Text: chunk.Text}}) {
						return
					}
				}
			}
		}
	}()

	return events
}

func (u *answerUsecase) retrieve(ctx context.Context, input AnswerInput) (*RetrieveAndRankOutput, []Citation, error) {
	if input.Query == "" {
		return nil, nil, fmt.Errorf("query is empty")
	}

	out, err := u.retriever.Execute(ctx, RetrieveAndRankInput{
		Query:  input.Query,
		TopK:   input.TopK,
		Filter: input.Filter,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("context retrieval: %w", err)
	}

	citations := make([]Citation, 0, len(out.Results))
	for _, r := range out.Results {
		citations = append(citations, Citation{
			DocID:   r.DocID.String(),
			Title:   r.Metadata.Title,
			LawName: r.Metadata.LawName,
			URL:     r.Metadata.URL,
			Excerpt: excerpt(r.Text, 240),
			Score:   r.FinalScore,
		})
	}
	return out, citations, nil
}

func (u *answerUsecase) buildPrompt(query string, retrieved *RetrieveAndRankOutput) ([]domain.ChatMessage, error) {
	contexts := make([]PromptContext, 0, len(retrieved.Results))
	for _, r := range retrieved.Results {
		contexts = append(contexts, PromptContext{
			DocID:   r.DocID.String(),
			Title:   r.Metadata.Title,
			LawName: r.Metadata.LawName,
			URL:     r.Metadata.URL,
			Text:    r.Text,
			Score:   r.FinalScore,
		})
	}
	return u.builder.Build(PromptInput{
		Query:    query,
		Subject:  retrieved.Subject,
		Contexts: contexts,
	})
}

// excerpt truncates text on a rune boundary for citation previews.
func excerpt(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "…"
}
