package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
	"github.com/LegislAI/legislai-be-sub000/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRetrieveUsecase struct {
	mock.Mock
}

func (m *mockRetrieveUsecase) Execute(ctx context.Context, input usecase.RetrieveAndRankInput) (*usecase.RetrieveAndRankOutput, error) {
	args := m.Called(ctx, input)
	if v := args.Get(0); v != nil {
		return v.(*usecase.RetrieveAndRankOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAnswerUsecase struct {
	mock.Mock
}

func (m *mockAnswerUsecase) Execute(ctx context.Context, input usecase.AnswerInput) (*usecase.AnswerOutput, error) {
	args := m.Called(ctx, input)
	if v := args.Get(0); v != nil {
		return v.(*usecase.AnswerOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnswerUsecase) Stream(ctx context.Context, input usecase.AnswerInput) <-chan usecase.StreamEvent {
	args := m.Called(ctx, input)
	return args.Get(0).(<-chan usecase.StreamEvent)
}

type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockJobRepo) Enqueue(ctx context.Context, job *domain.IngestJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepo) AcquireNextJob(ctx context.Context) (*domain.IngestJob, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*domain.IngestJob), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error {
	args := m.Called(ctx, id, status, errorMessage)
	return args.Error(0)
}

func doRequest(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.Register(e)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRetrieveEndpoint_ReturnsRankedResults(t *testing.T) {
	docID := uuid.New()
	retriever := new(mockRetrieveUsecase)
	retriever.On("Execute", mock.Anything, mock.MatchedBy(func(in usecase.RetrieveAndRankInput) bool {
		return in.Query == "qual o prazo?" && in.TopK == 5 &&
			in.Filter != nil && in.Filter.Theme == "trabalho"
	})).Return(&usecase.RetrieveAndRankOutput{
		RetrievalID: "rid-1",
		Results: domain.RankedResultList{
			{DocID: docID, Text: "texto", FinalScore: 0.9},
		},
		Filter: domain.QueryFilter{Theme: "trabalho"},
	}, nil)

	h := NewHandler(retriever, nil, nil, nil)
	rec := doRequest(h, http.MethodPost, "/v1/retrieve",
		`{"query":"qual o prazo?","top_k":5,"metadata_filter":{"theme":"trabalho"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp retrieveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rid-1", resp.RetrievalID)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, docID.String(), resp.Results[0].DocID)
	assert.Equal(t, "trabalho", resp.Filter["theme"])
}

func TestRetrieveEndpoint_RequiresQuery(t *testing.T) {
	h := NewHandler(new(mockRetrieveUsecase), nil, nil, nil)
	rec := doRequest(h, http.MethodPost, "/v1/retrieve", `{"top_k":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrieveEndpoint_IndexUnavailableIs503(t *testing.T) {
	retriever := new(mockRetrieveUsecase)
	retriever.On("Execute", mock.Anything, mock.Anything).
		Return(nil, domain.ErrIndexUnavailable)

	h := NewHandler(retriever, nil, nil, nil)
	rec := doRequest(h, http.MethodPost, "/v1/retrieve", `{"query":"q"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnswerEndpoint_StreamsSSE(t *testing.T) {
	events := make(chan usecase.StreamEvent, 4)
	events <- usecase.StreamEvent{Kind: usecase.StreamEventKindMeta, Payload: usecase.StreamMeta{}}
	events <- usecase.StreamEvent{Kind: usecase.StreamEventKindDelta, Payload: usecase.StreamDelta{Text: "O prazo"}}
	events <- usecase.StreamEvent{Kind: usecase.StreamEventKindDone}
	close(events)

	answerer := new(mockAnswerUsecase)
	answerer.On("Stream", mock.Anything, mock.Anything).
		Return((<-chan usecase.StreamEvent)(events))

	h := NewHandler(nil, answerer, nil, nil)
	rec := doRequest(h, http.MethodPost, "/v1/answer", `{"query":"qual o prazo?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	body := rec.Body.String()
	assert.Contains(t, body, "event: meta")
	assert.Contains(t, body, "event: delta")
	assert.Contains(t, body, `"Text":"O prazo"`)
	assert.Contains(t, body, "event: done")
}

func TestIngestEndpoint_EnqueuesJob(t *testing.T) {
	jobRepo := new(mockJobRepo)
	jobRepo.On("Enqueue", mock.Anything, mock.MatchedBy(func(job *domain.IngestJob) bool {
		return job.JobType == domain.JobTypeIndexDocument &&
			job.Status == domain.JobStatusNew &&
			job.Payload["law_name"] == "Código do Trabalho"
	})).Return(nil)

	h := NewHandler(nil, nil, jobRepo, nil)
	rec := doRequest(h, http.MethodPost, "/internal/ingest",
		`{"law_name":"Código do Trabalho","title":"Artigo 1.º","text":"texto da lei"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	jobRepo.AssertExpectations(t)
}

func TestIngestEndpoint_RequiresTextAndIdentity(t *testing.T) {
	h := NewHandler(nil, nil, new(mockJobRepo), nil)

	rec := doRequest(h, http.MethodPost, "/internal/ingest", `{"law_name":"Lei"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(h, http.MethodPost, "/internal/ingest", `{"text":"texto"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil)

	rec := doRequest(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_FailingCheckIs503(t *testing.T) {
	h := NewHandler(nil, nil, nil, func(ctx echo.Context) error {
		return context.DeadlineExceeded
	})

	rec := doRequest(h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
