package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRetriever struct {
	mock.Mock
}

func (m *mockRetriever) Execute(ctx context.Context, input RetrieveAndRankInput) (*RetrieveAndRankOutput, error) {
	args := m.Called(ctx, input)
	if v := args.Get(0); v != nil {
		return v.(*RetrieveAndRankOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func rankedResults(texts ...string) domain.RankedResultList {
	out := make(domain.RankedResultList, len(texts))
	for i, text := range texts {
		out[i] = domain.CandidateResult{
			DocID: uuid.New(),
			Text:  text,
			Metadata: domain.ChunkMetadata{
				Title:   "Artigo 1.º",
				LawName: "Código do Trabalho",
			},
			FinalScore: float64(len(texts)-i) / 10,
		}
	}
	return out
}

func TestAnswerExecute_GeneratesCitedAnswer(t *testing.T) {
	retriever := new(mockRetriever)
	retriever.On("Execute", mock.Anything, mock.Anything).Return(&RetrieveAndRankOutput{
		RetrievalID: "rid-1",
		Results:     rankedResults("o aviso prévio é de 60 dias"),
	}, nil)

	llm := new(mockLLMClient)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("O aviso prévio é de 60 dias [1].", nil)

	uc := NewAnswerUsecase(retriever, llm, NewXMLPromptBuilder(), testLogger())
	out, err := uc.Execute(context.Background(), AnswerInput{Query: "qual o aviso prévio?"})

	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "O aviso prévio é de 60 dias [1].", out.Answer)
	require.Len(t, out.Citations, 1)
	assert.Equal(t, "Código do Trabalho", out.Citations[0].LawName)
	assert.Equal(t, "rid-1", out.Debug.RetrievalID)
}

func TestAnswerExecute_EmptyRetrievalFallsBack(t *testing.T) {
	retriever := new(mockRetriever)
	retriever.On("Execute", mock.Anything, mock.Anything).Return(&RetrieveAndRankOutput{
		RetrievalID: "rid-2",
	}, nil)

	llm := new(mockLLMClient)
	uc := NewAnswerUsecase(retriever, llm, NewXMLPromptBuilder(), testLogger())
	out, err := uc.Execute(context.Background(), AnswerInput{Query: "pergunta sem resposta"})

	require.NoError(t, err)
	assert.True(t, out.Fallback)
	llm.AssertNotCalled(t, "Complete")
}

func TestAnswerExecute_GenerationFailureFallsBackWithCitations(t *testing.T) {
	retriever := new(mockRetriever)
	retriever.On("Execute", mock.Anything, mock.Anything).Return(&RetrieveAndRankOutput{
		Results: rankedResults("texto"),
	}, nil)

	llm := new(mockLLMClient)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model offline"))

	uc := NewAnswerUsecase(retriever, llm, NewXMLPromptBuilder(), testLogger())
	out, err := uc.Execute(context.Background(), AnswerInput{Query: "q"})

	require.NoError(t, err)
	assert.True(t, out.Fallback)
	// Citations still returned so the caller can show sources.
	assert.Len(t, out.Citations, 1)
}

func TestAnswerStream_MetaDeltasDone(t *testing.T) {
	retriever := new(mockRetriever)
	retriever.On("Execute", mock.Anything, mock.Anything).Return(&RetrieveAndRankOutput{
		RetrievalID: "rid-3",
		Results:     rankedResults("excerto um", "excerto dois"),
	}, nil)

	chunks := make(chan domain.StreamChunk, 4)
	chunks <- domain.StreamChunk{Text: "O prazo "}
	chunks <- domain.StreamChunk{Text: "é de 60 dias [1]."}
	chunks <- domain.StreamChunk{Done: true}
	errs := make(chan error)

	llm := new(mockLLMClient)
	llm.On("CompleteStream", mock.Anything, mock.Anything, mock.Anything).
		Return((<-chan domain.StreamChunk)(chunks), (<-chan error)(errs), nil)

	uc := NewAnswerUsecase(retriever, llm, NewXMLPromptBuilder(), testLogger())

	var kinds []StreamEventKind
	var text strings.Builder
	for ev := range uc.Stream(context.Background(), AnswerInput{Query: "qual o prazo?"}) {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == StreamEventKindDelta {
			text.WriteString(ev.Payload.(StreamDelta).Text)
		}
	}

	require.Equal(t, []StreamEventKind{
		StreamEventKindMeta,
		StreamEventKindDelta,
		StreamEventKindDelta,
		StreamEventKindDone,
	}, kinds)
	assert.Equal(t, "O prazo é de 60 dias [1].", text.String())
}

func TestAnswerStream_GoneConsumerReleasesProducer(t *testing.T) {
	retriever := new(mockRetriever)
	retriever.On("Execute", mock.Anything, mock.Anything).Return(&RetrieveAndRankOutput{
		RetrievalID: "rid-4",
		Results:     rankedResults("excerto"),
	}, nil)

	// More deltas than the event buffer holds, so a stalled consumer would
	// park the producer on a full channel.
	chunks := make(chan domain.StreamChunk, 64)
	for i := 0; i < 64; i++ {
		chunks <- domain.StreamChunk{Text: "palavra "}
	}
	errs := make(chan error)

	llm := new(mockLLMClient)
	llm.On("CompleteStream", mock.Anything, mock.Anything, mock.Anything).
		Return((<-chan domain.StreamChunk)(chunks), (<-chan error)(errs), nil)

	uc := NewAnswerUsecase(retriever, llm, NewXMLPromptBuilder(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	events := uc.Stream(ctx, AnswerInput{Query: "qual o prazo?"})

	ev, ok := <-events
	require.True(t, ok)
	require.Equal(t, StreamEventKindMeta, ev.Kind)

	// Stop reading and cancel, as a disconnected client would.
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-events:
			if !open {
				return // producer exited and closed the channel
			}
		case <-deadline:
			t.Fatal("stream goroutine still sending after cancellation")
		}
	}
}

func TestAnswerStream_EmptyRetrievalEmitsFallback(t *testing.T) {
	retriever := new(mockRetriever)
	retriever.On("Execute", mock.Anything, mock.Anything).Return(&RetrieveAndRankOutput{}, nil)

	uc := NewAnswerUsecase(retriever, new(mockLLMClient), NewXMLPromptBuilder(), testLogger())

	var kinds []StreamEventKind
	var fallback StreamFallback
	for ev := range uc.Stream(context.Background(), AnswerInput{Query: "q"}) {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == StreamEventKindFallback {
			fallback = ev.Payload.(StreamFallback)
		}
	}

	assert.Equal(t, []StreamEventKind{StreamEventKindMeta, StreamEventKindFallback}, kinds)
	assert.Equal(t, FallbackRetrievalEmpty, fallback.Category)
}

func TestAnswerStream_RetrievalErrorEmitsError(t *testing.T) {
	retriever := new(mockRetriever)
	retriever.On("Execute", mock.Anything, mock.Anything).
		Return(nil, domain.ErrIndexUnavailable)

	uc := NewAnswerUsecase(retriever, new(mockLLMClient), NewXMLPromptBuilder(), testLogger())

	var events []StreamEvent
	for ev := range uc.Stream(context.Background(), AnswerInput{Query: "q"}) {
		events = append(events, ev)
	}

	require.Len(t, events, 1)
	assert.Equal(t, StreamEventKindError, events[0].Kind)
}

func TestXMLPromptBuilder_Build(t *testing.T) {
	builder := NewXMLPromptBuilder("Nunca inventes artigos.")
	messages, err := builder.Build(PromptInput{
		Query:   "qual o prazo?",
		Subject: "Despedimento",
		Contexts: []PromptContext{
			{LawName: "Código do Trabalho", Title: "Artigo 363.º", Text: "texto com < e &"},
		},
	})

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "Nunca inventes artigos.")
	assert.Contains(t, messages[0].Content, `<context index="1">`)
	assert.Contains(t, messages[0].Content, "texto com &lt; e &amp;")
	assert.Contains(t, messages[1].Content, "<pergunta>qual o prazo?</pergunta>")
	assert.Contains(t, messages[1].Content, "<assunto>Despedimento</assunto>")
}

func TestXMLPromptBuilder_RequiresContexts(t *testing.T) {
	_, err := NewXMLPromptBuilder().Build(PromptInput{Query: "q"})
	require.Error(t, err)
}
