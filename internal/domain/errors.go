package domain

import "errors"

var (
	// ErrEmbedding signals that an embedding model call failed. Callers decide
	// whether to skip the affected sub-query or abort the request.
	ErrEmbedding = errors.New("embedding call failed")

	// ErrIndexUnavailable signals that the vector index is unreachable or the
	// collection has not been created. This is distinct from an empty result
	// set and must never be swallowed into one.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrMalformedModelOutput signals that an LLM response failed structured
	// parsing. It never escapes the retrieval pipeline; every call site
	// resolves it to a documented fallback value.
	ErrMalformedModelOutput = errors.New("malformed model output")
)
