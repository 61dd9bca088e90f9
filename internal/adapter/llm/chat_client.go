package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

// ChatClient talks to an OpenAI-compatible chat completions endpoint. Both
// the answer generator and the relevance judge go through it.
type ChatClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

var _ domain.LLMClient = (*ChatClient)(nil)

// NewChatClient creates a ChatClient for the given endpoint and model.
func NewChatClient(baseURL, model, apiKey string, client *http.Client) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  client,
	}
}

type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	Stream      bool                 `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *ChatClient) Model() string {
	return c.model
}

// Complete sends a blocking chat completion and returns the assistant text.
func (c *ChatClient) Complete(ctx context.Context, messages []domain.ChatMessage, temperature float64) (string, error) {
	resp, err := c.send(ctx, chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return body.Choices[0].Message.Content, nil
}

// CompleteStream sends a streaming completion and forwards SSE deltas as
// StreamChunks. The chunk channel closes after the final Done chunk; a
// transport failure mid-stream arrives on the error channel instead.
func (c *ChatClient) CompleteStream(ctx context.Context, messages []domain.ChatMessage, temperature float64) (<-chan domain.StreamChunk, <-chan error, error) {
	resp, err := c.send(ctx, chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, nil, err
	}

	chunks := make(chan domain.StreamChunk, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				break
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				// Skip malformed frames rather than killing the stream.
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if text := chunk.Choices[0].Delta.Content; text != "" {
				select {
				case chunks <- domain.StreamChunk{Text: text}:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			if chunk.Choices[0].FinishReason != nil {
				break
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("read stream: %w", err)
			return
		}
		chunks <- domain.StreamChunk{Done: true}
	}()

	return chunks, errs, nil
}

func (c *ChatClient) send(ctx context.Context, body chatRequest) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call chat endpoint: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, snippet)
	}
	return resp, nil
}
