package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LegislAI/legislai-be-sub000/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// pgx error codes that mean the index itself is unusable, as opposed to a
// query returning nothing.
const (
	pgUndefinedTable     = "42P01"
	pgConnectionFailure  = "08006"
	pgCannotConnectNow   = "57P03"
	pgAdminShutdown      = "57P01"
	pgInsufficientDenied = "53300"
)

// defaultHybridAlpha is the dense weight of the blend when none is configured.
const defaultHybridAlpha = 0.3

// PgVectorIndexConfig holds the table layout and the hybrid blend. This is
// the single home of the blend coefficient; no other pipeline stage carries
// a copy.
type PgVectorIndexConfig struct {
	// Table is the chunk table name.
	Table string
	// SparseDim is the sparse vocabulary size of the embedding model.
	SparseDim int
	// Alpha blends dense (1.0) against sparse (0.0) cosine similarity.
	// Values outside [0, 1] fall back to defaultHybridAlpha.
	Alpha float64
}

type pgVectorIndex struct {
	pool *pgxpool.Pool
	cfg  PgVectorIndexConfig
}

var _ domain.VectorIndex = (*pgVectorIndex)(nil)

// NewPgVectorIndex creates a VectorIndex backed by a pgvector table.
func NewPgVectorIndex(pool *pgxpool.Pool, cfg PgVectorIndexConfig) domain.VectorIndex {
	if cfg.Table == "" {
		cfg.Table = "legal_chunks"
	}
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		cfg.Alpha = defaultHybridAlpha
	}
	return &pgVectorIndex{pool: pool, cfg: cfg}
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func (r *pgVectorIndex) executor(ctx context.Context) rowQuerier {
	if tx := ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// CreateIfAbsent provisions the extension, the chunk table, and an HNSW
// index over the dense column. Safe to call on every startup.
func (r *pgVectorIndex) CreateIfAbsent(ctx context.Context, dimension int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL,
			sparse_embedding sparsevec(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, r.cfg.Table, dimension, r.cfg.SparseDim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx
			ON %s USING hnsw (embedding vector_cosine_ops)`, r.cfg.Table, r.cfg.Table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_metadata_idx
			ON %s USING gin (metadata)`, r.cfg.Table, r.cfg.Table),
	}

	for _, stmt := range statements {
		if _, err := r.executor(ctx).Exec(ctx, stmt); err != nil {
			return wrapIndexErr(fmt.Errorf("provision %s: %w", r.cfg.Table, err))
		}
	}
	return nil
}

// Upsert inserts or replaces a chunk wholesale by ID.
func (r *pgVectorIndex) Upsert(ctx context.Context, chunk domain.DocumentChunk) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding, sparse_embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			sparse_embedding = EXCLUDED.sparse_embedding,
			created_at = EXCLUDED.created_at
	`, r.cfg.Table)

	_, err := r.executor(ctx).Exec(ctx, query,
		chunk.ID,
		chunk.Text,
		chunk.Metadata,
		pgvector.NewVector(chunk.Dense),
		pgvector.NewSparseVectorFromMap(chunk.Sparse, int32(r.cfg.SparseDim)),
		chunk.CreatedAt,
	)
	if err != nil {
		return wrapIndexErr(fmt.Errorf("upsert chunk %s: %w", chunk.ID, err))
	}
	return nil
}

// Query runs one hybrid search: a convex blend of dense and sparse cosine
// similarity, restricted by the metadata filter conjunction. Zero hits is a
// valid outcome; only an unusable index maps to ErrIndexUnavailable.
func (r *pgVectorIndex) Query(
	ctx context.Context,
	dense []float32,
	sparse map[int32]float32,
	filter domain.QueryFilter,
	topK int,
) ([]domain.VectorHit, error) {
	args := []interface{}{
		pgvector.NewVector(dense),
		pgvector.NewSparseVectorFromMap(sparse, int32(r.cfg.SparseDim)),
		r.cfg.Alpha,
	}
	where, args := buildMetadataWhere(filter, args)

	query := fmt.Sprintf(`
		SELECT id, content, metadata,
			$3 * (1 - (embedding <=> $1)) + (1 - $3) * (1 - (sparse_embedding <=> $2)) AS score
		FROM %s
		%s
		ORDER BY score DESC
		LIMIT %d
	`, r.cfg.Table, where, topK)

	rows, err := r.executor(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, wrapIndexErr(fmt.Errorf("hybrid query: %w", err))
	}
	defer rows.Close()

	var hits []domain.VectorHit
	for rows.Next() {
		var h domain.VectorHit
		if err := rows.Scan(&h.DocID, &h.Text, &h.Metadata, &h.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapIndexErr(fmt.Errorf("rows error: %w", err))
	}
	return hits, nil
}

// buildMetadataWhere renders the filter as an exact-match conjunction over
// the JSONB metadata column, appending bind arguments after the fixed ones.
func buildMetadataWhere(filter domain.QueryFilter, args []interface{}) (string, []interface{}) {
	fields := filter.Fields()
	if len(fields) == 0 {
		return "", args
	}

	// Iterate a fixed key order so the generated SQL is stable.
	var clauses []string
	for _, key := range []string{"theme", "legislation_date", "region"} {
		val, ok := fields[key]
		if !ok {
			continue
		}
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf("metadata->>'%s' = $%d", key, len(args)))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// wrapIndexErr maps connection-level and missing-table failures onto
// ErrIndexUnavailable so callers can distinguish them from empty results.
func wrapIndexErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable, pgConnectionFailure, pgCannotConnectNow, pgAdminShutdown, pgInsufficientDenied:
			return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return err
}
