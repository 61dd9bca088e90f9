package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

// HTTPClassifier calls a topic-classification service that returns the
// highest-scoring label for a piece of text.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
}

var _ domain.TopicClassifier = (*HTTPClassifier)(nil)

// NewHTTPClassifier creates an HTTPClassifier.
func NewHTTPClassifier(baseURL string, client *http.Client) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (domain.TopicPrediction, error) {
	jsonData, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return domain.TopicPrediction{}, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(jsonData))
	if err != nil {
		return domain.TopicPrediction{}, fmt.Errorf("create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.TopicPrediction{}, fmt.Errorf("call classifier: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.TopicPrediction{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var body classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.TopicPrediction{}, fmt.Errorf("decode classifier response: %w", err)
	}
	return domain.TopicPrediction{Label: body.Label, Score: body.Score}, nil
}
