package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

// HTTPEmbedder calls an embedding service exposing dense and sparse models
// over HTTP. Dense query embeddings are memoized in an LRU cache: retrieval
// embeds the same short queries repeatedly across expansions and retries.
type HTTPEmbedder struct {
	baseURL    string
	denseModel string
	client     *http.Client
	cache      *lru.Cache[string, []float32]
	logger     *slog.Logger
}

var _ domain.EmbeddingProvider = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder creates an HTTPEmbedder. cacheSize <= 0 disables caching.
func NewHTTPEmbedder(baseURL, denseModel string, client *http.Client, cacheSize int, logger *slog.Logger) (*HTTPEmbedder, error) {
	e := &HTTPEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		denseModel: denseModel,
		client:     client,
		logger:     logger,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, []float32](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

type denseRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type denseResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type sparseRequest struct {
	Input string `json:"input"`
}

type sparseResponse struct {
	Indices []int32   `json:"indices"`
	Values  []float32 `json:"values"`
}

func (e *HTTPEmbedder) EmbedDense(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		if vec, ok := e.cache.Get(text); ok {
			return vec, nil
		}
	}

	vecs, err := e.EmbedDenseBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", domain.ErrEmbedding, len(vecs))
	}

	if e.cache != nil {
		e.cache.Add(text, vecs[0])
	}
	return vecs[0], nil
}

func (e *HTTPEmbedder) EmbedDenseBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()

	var resp denseResponse
	err := e.post(ctx, "/embed", denseRequest{Model: e.denseModel, Input: texts}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrEmbedding, len(texts), len(resp.Embeddings))
	}

	e.logger.Debug("dense_embed_completed",
		slog.Int("text_count", len(texts)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return resp.Embeddings, nil
}

func (e *HTTPEmbedder) EmbedSparse(ctx context.Context, text string) (map[int32]float32, error) {
	var resp sparseResponse
	if err := e.post(ctx, "/embed/sparse", sparseRequest{Input: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Indices) != len(resp.Values) {
		return nil, fmt.Errorf("%w: %d indices for %d values",
			domain.ErrEmbedding, len(resp.Indices), len(resp.Values))
	}

	out := make(map[int32]float32, len(resp.Indices))
	for i, idx := range resp.Indices {
		out[idx] = resp.Values[i]
	}
	return out, nil
}

func (e *HTTPEmbedder) Version() string {
	return e.denseModel
}

func (e *HTTPEmbedder) post(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", domain.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", domain.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: embedding service returned status %d", domain.ErrEmbedding, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrEmbedding, err)
	}
	return nil
}
