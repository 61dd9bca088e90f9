package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"
)

// IngestDocumentInput is one legal document to chunk, embed, and index.
type IngestDocumentInput struct {
	LawName  string
	Title    string
	Text     string
	Metadata domain.ChunkMetadata
}

// IngestUsecase defines the contract for indexing legal documents.
type IngestUsecase interface {
	// Upsert chunks, embeds, and indexes a document. Idempotent: chunk IDs
	// derive from (law name, title, ordinal), so re-ingesting replaces.
	Upsert(ctx context.Context, input IngestDocumentInput) (int, error)
}

type ingestUsecase struct {
	embedder  domain.EmbeddingProvider
	index     domain.VectorIndex
	txManager domain.TransactionManager
	logger    *slog.Logger
}

// NewIngestUsecase creates a new IngestUsecase. txManager may be nil, in which
// case chunks are upserted outside a transaction.
func NewIngestUsecase(
	embedder domain.EmbeddingProvider,
	index domain.VectorIndex,
	txManager domain.TransactionManager,
	logger *slog.Logger,
) IngestUsecase {
	return &ingestUsecase{
		embedder:  embedder,
		index:     index,
		txManager: txManager,
		logger:    logger,
	}
}

func (u *ingestUsecase) Upsert(ctx context.Context, input IngestDocumentInput) (int, error) {
	if input.Text == "" {
		return 0, fmt.Errorf("document text is empty")
	}
	if input.LawName == "" && input.Title == "" {
		return 0, fmt.Errorf("document needs a law name or title to derive chunk identity")
	}

	texts := domain.SplitText(input.Text, domain.ChunkSize)

	dense, err := u.embedder.EmbedDenseBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("dense embedding batch: %w", err)
	}
	if len(dense) != len(texts) {
		return 0, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(dense), len(texts))
	}

	metadata := input.Metadata
	if metadata.LawName == "" {
		metadata.LawName = input.LawName
	}
	if metadata.Title == "" {
		metadata.Title = input.Title
	}

	now := time.Now()
	upsertAll := func(ctx context.Context) error {
		for i, text := range texts {
			sparse, err := u.embedder.EmbedSparse(ctx, text)
			if err != nil {
				return fmt.Errorf("sparse embedding chunk %d: %w", i, err)
			}

			chunk := domain.DocumentChunk{
				ID:        domain.ChunkID(input.LawName, input.Title, i),
				Text:      text,
				Metadata:  metadata,
				Dense:     dense[i],
				Sparse:    sparse,
				CreatedAt: now,
			}
			if err := u.index.Upsert(ctx, chunk); err != nil {
				return fmt.Errorf("upsert chunk %d: %w", i, err)
			}
		}
		return nil
	}

	// One transaction per document so a mid-document failure never leaves a
	// partially replaced law behind.
	if u.txManager != nil {
		err = u.txManager.RunInTx(ctx, upsertAll)
	} else {
		err = upsertAll(ctx)
	}
	if err != nil {
		return 0, err
	}

	u.logger.Info("document_indexed",
		slog.String("law_name", input.LawName),
		slog.String("title", input.Title),
		slog.Int("chunk_count", len(texts)),
		slog.String("embedder_version", u.embedder.Version()))
	return len(texts), nil
}
