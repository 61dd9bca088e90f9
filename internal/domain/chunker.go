package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ChunkSize is the fixed chunk length in runes. Long documents are split into
// non-overlapping windows of this size before embedding and indexing.
const ChunkSize = 512

// chunkNamespace scopes deterministic chunk IDs to this index.
var chunkNamespace = uuid.MustParse("7c9e6f3a-1b2d-4e5f-8a90-3c4d5e6f7a8b")

// ChunkID derives a stable UUID for a chunk from its content key. Re-ingesting
// the same law yields the same IDs, which makes Upsert idempotent.
func ChunkID(lawName, title string, ordinal int) uuid.UUID {
	key := fmt.Sprintf("%s|%s#%d", lawName, title, ordinal)
	return uuid.NewSHA1(chunkNamespace, []byte(key))
}

// SplitText splits text into fixed-size non-overlapping rune windows.
// The trailing chunk may be shorter; empty input yields no chunks.
func SplitText(text string, size int) []string {
	if size <= 0 {
		size = ChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
