package di

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LegislAI/legislai-be-sub000/internal/adapter/classifier"
	"github.com/LegislAI/legislai-be-sub000/internal/adapter/embedder"
	"github.com/LegislAI/legislai-be-sub000/internal/adapter/llm"
	"github.com/LegislAI/legislai-be-sub000/internal/adapter/repository"
	"github.com/LegislAI/legislai-be-sub000/internal/domain"
	"github.com/LegislAI/legislai-be-sub000/internal/infra/config"
	"github.com/LegislAI/legislai-be-sub000/internal/infra/httpclient"
	"github.com/LegislAI/legislai-be-sub000/internal/usecase"
	"github.com/LegislAI/legislai-be-sub000/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Boundary adapters
	Embedder    domain.EmbeddingProvider
	VectorIndex domain.VectorIndex
	LLMClient   domain.LLMClient
	JobRepo     domain.IngestJobRepository
	TxManager   domain.TransactionManager

	// Usecases
	RetrieveUsecase usecase.RetrieveAndRankUsecase
	AnswerUsecase   usecase.AnswerUsecase
	IngestUsecase   usecase.IngestUsecase

	// Worker
	Worker *worker.IngestWorker
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second)
	llmHTTP := httpclient.NewPooledClient(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second)

	// External clients
	embeddingClient, err := embedder.NewHTTPEmbedder(
		cfg.Embedding.BaseURL, cfg.Embedding.DenseModel, embedderHTTP, cfg.Embedding.CacheSize, log)
	if err != nil {
		return nil, fmt.Errorf("wire embedder: %w", err)
	}
	llmClient := llm.NewChatClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.APIKey, llmHTTP)

	// The classifier is optional: without it preprocessing simply skips the
	// topic branch.
	var topicClassifier domain.TopicClassifier
	if cfg.Classifier.BaseURL != "" {
		classifierHTTP := httpclient.NewPooledClient(time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second)
		topicClassifier = classifier.NewHTTPClassifier(cfg.Classifier.BaseURL, classifierHTTP)
	}

	// Storage
	vectorIndex := repository.NewPgVectorIndex(pool, repository.PgVectorIndexConfig{
		Table:     cfg.Retrieval.ChunkTable,
		SparseDim: cfg.Embedding.SparseDim,
		Alpha:     cfg.Retrieval.HybridAlpha,
	})
	jobRepo := repository.NewIngestJobRepository(pool)
	txManager := repository.NewPgxTransactionManager(pool)

	// Retrieval config
	retrievalConfig := usecase.DefaultRetrievalConfig()
	retrievalConfig.TopK = cfg.Retrieval.TopK
	retrievalConfig.Preprocess.TopicThreshold = cfg.Retrieval.TopicThreshold
	retrievalConfig.Retrieve.PerQueryTopK = cfg.Retrieval.PerQueryTopK
	retrievalConfig.Judge.MaxConcurrent = cfg.Retrieval.JudgeWorkers
	retrievalConfig.Judge.RequestsPerSecond = cfg.Retrieval.JudgeRPS
	retrievalConfig.Judge.DefaultScore = cfg.Retrieval.JudgeDefaultScore
	retrievalConfig.Judge.LowConfidenceFloor = cfg.Retrieval.JudgeLowConfidenceFloor
	retrievalConfig.Fusion.Weight = cfg.Retrieval.FusionWeight
	if err := retrievalConfig.Validate(); err != nil {
		return nil, fmt.Errorf("retrieval config: %w", err)
	}

	// Usecases
	retrieveUsecase := usecase.NewRetrieveAndRankUsecase(
		embeddingClient, vectorIndex, llmClient, topicClassifier, retrievalConfig, log)
	promptBuilder := usecase.NewXMLPromptBuilder()
	answerUsecase := usecase.NewAnswerUsecase(retrieveUsecase, llmClient, promptBuilder, log)
	ingestUsecase := usecase.NewIngestUsecase(embeddingClient, vectorIndex, txManager, log)

	// Worker
	workerCfg := worker.DefaultConfig()
	if cfg.Worker.PollSeconds > 0 {
		workerCfg.PollInterval = time.Duration(cfg.Worker.PollSeconds) * time.Second
	}
	if cfg.Worker.MaxBackoffSeconds > 0 {
		workerCfg.MaxBackoff = time.Duration(cfg.Worker.MaxBackoffSeconds) * time.Second
	}
	ingestWorker := worker.NewIngestWorker(jobRepo, ingestUsecase, workerCfg, log)

	return &ApplicationComponents{
		Embedder:        embeddingClient,
		VectorIndex:     vectorIndex,
		LLMClient:       llmClient,
		JobRepo:         jobRepo,
		TxManager:       txManager,
		RetrieveUsecase: retrieveUsecase,
		AnswerUsecase:   answerUsecase,
		IngestUsecase:   ingestUsecase,
		Worker:          ingestWorker,
	}, nil
}
