package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Complete(ctx context.Context, messages []domain.ChatMessage, temperature float64) (string, error) {
	args := m.Called(ctx, messages, temperature)
	return args.String(0), args.Error(1)
}

func (m *mockLLMClient) CompleteStream(ctx context.Context, messages []domain.ChatMessage, temperature float64) (<-chan domain.StreamChunk, <-chan error, error) {
	args := m.Called(ctx, messages, temperature)
	var chunks <-chan domain.StreamChunk
	var errs <-chan error
	if c := args.Get(0); c != nil {
		chunks = c.(<-chan domain.StreamChunk)
	}
	if e := args.Get(1); e != nil {
		errs = e.(<-chan error)
	}
	return chunks, errs, args.Error(2)
}

func (m *mockLLMClient) Model() string {
	return "mock-model"
}

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) EmbedDense(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmbedder) EmbedSparse(ctx context.Context, text string) (map[int32]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.(map[int32]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmbedder) EmbedDenseBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if v := args.Get(0); v != nil {
		return v.([][]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmbedder) Version() string {
	return "mock-embedder-v1"
}

type mockVectorIndex struct {
	mock.Mock
}

func (m *mockVectorIndex) CreateIfAbsent(ctx context.Context, dimension int) error {
	args := m.Called(ctx, dimension)
	return args.Error(0)
}

func (m *mockVectorIndex) Upsert(ctx context.Context, chunk domain.DocumentChunk) error {
	args := m.Called(ctx, chunk)
	return args.Error(0)
}

func (m *mockVectorIndex) Query(ctx context.Context, dense []float32, sparse map[int32]float32, filter domain.QueryFilter, topK int) ([]domain.VectorHit, error) {
	args := m.Called(ctx, dense, sparse, filter, topK)
	if v := args.Get(0); v != nil {
		return v.([]domain.VectorHit), args.Error(1)
	}
	return nil, args.Error(1)
}

func newPipelineUsecase(embedder *mockEmbedder, index *mockVectorIndex, llm *mockLLMClient) RetrieveAndRankUsecase {
	cfg := DefaultRetrievalConfig()
	return NewRetrieveAndRankUsecase(embedder, index, llm, nil, cfg, testLogger())
}

func TestRetrieveAndRank_EndToEnd(t *testing.T) {
	hitA := domain.VectorHit{DocID: uuid.New(), Text: "aviso prévio despedimento sessenta dias", Score: 0.9}
	hitB := domain.VectorHit{DocID: uuid.New(), Text: "subsídio natal pagamento dezembro", Score: 0.3}

	embedder := new(mockEmbedder)
	embedder.On("EmbedDense", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	embedder.On("EmbedSparse", mock.Anything, mock.Anything).Return(map[int32]float32{1: 1}, nil)

	index := new(mockVectorIndex)
	index.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.VectorHit{hitA, hitB}, nil)

	llm := new(mockLLMClient)
	// Preprocess branches get no usable output; judge scores parse fine.
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`<json>{"score": 85, "uncertain": false}</json>`, nil)

	uc := newPipelineUsecase(embedder, index, llm)
	out, err := uc.Execute(context.Background(), RetrieveAndRankInput{
		Query: "qual o prazo de aviso prévio no despedimento?",
	})

	require.NoError(t, err)
	require.NotEmpty(t, out.RetrievalID)
	require.Len(t, out.Results, 2)
	assert.Equal(t, hitA.DocID, out.Results[0].DocID)
	assert.Greater(t, out.Results[0].FinalScore, out.Results[1].FinalScore)
}

func TestRetrieveAndRank_EmptyQuery(t *testing.T) {
	uc := newPipelineUsecase(new(mockEmbedder), new(mockVectorIndex), new(mockLLMClient))

	_, err := uc.Execute(context.Background(), RetrieveAndRankInput{Query: ""})

	require.Error(t, err)
}

func TestRetrieveAndRank_IndexUnavailableSurfaces(t *testing.T) {
	embedder := new(mockEmbedder)
	embedder.On("EmbedDense", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	embedder.On("EmbedSparse", mock.Anything, mock.Anything).Return(map[int32]float32{1: 1}, nil)

	index := new(mockVectorIndex)
	index.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrIndexUnavailable)

	llm := new(mockLLMClient)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", context.DeadlineExceeded)

	uc := newPipelineUsecase(embedder, index, llm)
	_, err := uc.Execute(context.Background(), RetrieveAndRankInput{Query: "qual o prazo?"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestRetrieveAndRank_CallerFilterWins(t *testing.T) {
	embedder := new(mockEmbedder)
	embedder.On("EmbedDense", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	embedder.On("EmbedSparse", mock.Anything, mock.Anything).Return(map[int32]float32{1: 1}, nil)

	// The extraction branch yields 2020; the caller pins 2023. Caller wins.
	wantFilter := domain.QueryFilter{LegislationDate: "2023"}
	index := new(mockVectorIndex)
	index.On("Query", mock.Anything, mock.Anything, mock.Anything, wantFilter, mock.Anything).
		Return([]domain.VectorHit{}, nil)

	llm := new(mockLLMClient)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`<json>{"legislation_date":"2020","summary":"s","subject":"x","region":""}</json>`, nil)

	uc := newPipelineUsecase(embedder, index, llm)
	out, err := uc.Execute(context.Background(), RetrieveAndRankInput{
		Query:  "qual o prazo?",
		Filter: &domain.QueryFilter{LegislationDate: "2023"},
	})

	require.NoError(t, err)
	assert.Equal(t, "2023", out.Filter.LegislationDate)
	index.AssertExpectations(t)
}

func TestRetrieveAndRank_TopKOverride(t *testing.T) {
	hits := make([]domain.VectorHit, 6)
	for i := range hits {
		hits[i] = domain.VectorHit{DocID: uuid.New(), Text: "texto", Score: float64(6-i) / 10}
	}

	embedder := new(mockEmbedder)
	embedder.On("EmbedDense", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	embedder.On("EmbedSparse", mock.Anything, mock.Anything).Return(map[int32]float32{1: 1}, nil)

	index := new(mockVectorIndex)
	index.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(hits, nil)

	llm := new(mockLLMClient)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", context.DeadlineExceeded)

	uc := newPipelineUsecase(embedder, index, llm)
	out, err := uc.Execute(context.Background(), RetrieveAndRankInput{Query: "q", TopK: 3})

	require.NoError(t, err)
	assert.Len(t, out.Results, 3)
}
