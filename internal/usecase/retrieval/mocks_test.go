package retrieval

import (
	"context"
	"io"
	"log/slog"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	"github.com/stretchr/testify/mock"
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

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, text string) (domain.TopicPrediction, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(domain.TopicPrediction), args.Error(1)
}
