package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/LegislAI/legislai-be-sub000/internal/di"
	"github.com/LegislAI/legislai-be-sub000/internal/domain"
	"github.com/LegislAI/legislai-be-sub000/internal/infra"
	"github.com/LegislAI/legislai-be-sub000/internal/infra/config"
	"github.com/LegislAI/legislai-be-sub000/internal/infra/logger"
	"github.com/LegislAI/legislai-be-sub000/internal/usecase"
)

// document is one JSONL input line.
type document struct {
	LawName  string               `json:"law_name"`
	Title    string               `json:"title"`
	Text     string               `json:"text"`
	Metadata domain.ChunkMetadata `json:"metadata"`
}

func main() {
	var (
		filePath string
		pause    time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "legislai-ingest",
		Short: "Index legal documents into the retrieval store",
		Long: `Reads documents from a JSONL file (one document per line with
law_name, title, text, and optional metadata) and indexes them
synchronously: chunking, embedding, and upserting into pgvector.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), filePath, pause)
		},
	}

	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "JSONL file of documents (required)")
	rootCmd.Flags().DurationVar(&pause, "pause", 200*time.Millisecond, "pause between documents")
	_ = rootCmd.MarkFlagRequired("file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(ctx context.Context, filePath string, pause time.Duration) error {
	cfg := config.Load()
	log := logger.New(false)
	slog.SetDefault(log)

	pool, err := infra.NewPostgresDB(ctx, cfg.DB.DSN(), infra.PoolConfig{MaxConns: cfg.DB.MaxConns})
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer pool.Close()

	components, err := di.NewApplicationComponents(cfg, pool, log)
	if err != nil {
		return fmt.Errorf("wire components: %w", err)
	}
	if err := components.VectorIndex.CreateIfAbsent(ctx, cfg.Embedding.DenseDim); err != nil {
		return fmt.Errorf("provision vector index: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = file.Close() }()

	var total, succeeded, failed, chunks int
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		total++

		var doc document
		if err := json.Unmarshal(line, &doc); err != nil {
			log.Warn("skipping malformed line", slog.Int("line", total), slog.String("error", err.Error()))
			failed++
			continue
		}

		n, err := components.IngestUsecase.Upsert(ctx, usecase.IngestDocumentInput{
			LawName:  doc.LawName,
			Title:    doc.Title,
			Text:     doc.Text,
			Metadata: doc.Metadata,
		})
		if err != nil {
			log.Warn("document failed",
				slog.String("law_name", doc.LawName),
				slog.String("title", doc.Title),
				slog.String("error", err.Error()))
			failed++
			continue
		}
		succeeded++
		chunks += n

		if succeeded%100 == 0 {
			log.Info("progress", slog.Int("documents", succeeded), slog.Int("chunks", chunks))
		}
		if pause > 0 {
			time.Sleep(pause)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	log.Info("ingest_complete",
		slog.Int("total", total),
		slog.Int("succeeded", succeeded),
		slog.Int("failed", failed),
		slog.Int("chunks", chunks))
	return nil
}
