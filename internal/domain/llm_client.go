package domain

import "context"

// ChatMessage is a single turn in a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamChunk is one token batch from a streaming completion.
type StreamChunk struct {
	Text string
	Done bool
}

// LLMClient defines the chat-completion boundary. The retrieval core parses
// returned text for sentinel-delimited JSON and tolerates malformed output.
type LLMClient interface {
	Complete(ctx context.Context, messages []ChatMessage, temperature float64) (string, error)
	CompleteStream(ctx context.Context, messages []ChatMessage, temperature float64) (<-chan StreamChunk, <-chan error, error)
	Model() string
}
