package retrieval

import (
	"encoding/json"
	"strings"
)

const (
	payloadOpen  = "<json>"
	payloadClose = "</json>"
)

// modelPayload is the tagged outcome of parsing a sentinel-delimited JSON
// payload out of raw model text. Call sites branch on OK explicitly; there is
// no implicit zero-value fallback.
type modelPayload[T any] struct {
	OK  bool
	Val T
	Raw string
}

// parseModelPayload extracts the JSON between <json> markers and unmarshals
// it into T. Missing markers, truncated payloads, and type mismatches all
// yield a ParseFailed result carrying the raw text for logging.
func parseModelPayload[T any](raw string) modelPayload[T] {
	out := modelPayload[T]{Raw: raw}

	start := strings.Index(raw, payloadOpen)
	if start < 0 {
		return out
	}
	rest := raw[start+len(payloadOpen):]
	end := strings.Index(rest, payloadClose)
	if end < 0 {
		return out
	}

	body := strings.TrimSpace(rest[:end])
	if err := json.Unmarshal([]byte(body), &out.Val); err != nil {
		return out
	}
	out.OK = true
	return out
}
