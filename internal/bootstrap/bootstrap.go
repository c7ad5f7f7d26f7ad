package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	httpadapter "github.com/Chocano14/docuemnto-ia/internal/adapters/http"
	"github.com/Chocano14/docuemnto-ia/internal/config"
	"github.com/Chocano14/docuemnto-ia/internal/core/ports"
	"github.com/Chocano14/docuemnto-ia/internal/core/usecase"
	"github.com/Chocano14/docuemnto-ia/internal/infrastructure/chunking"
	"github.com/Chocano14/docuemnto-ia/internal/infrastructure/extractor"
	"github.com/Chocano14/docuemnto-ia/internal/infrastructure/llm/openai"
	"github.com/Chocano14/docuemnto-ia/internal/infrastructure/queue/nats"
	"github.com/Chocano14/docuemnto-ia/internal/infrastructure/repository/postgres"
	"github.com/Chocano14/docuemnto-ia/internal/infrastructure/resilience"
	"github.com/Chocano14/docuemnto-ia/internal/infrastructure/storage/localfs"
	"github.com/Chocano14/docuemnto-ia/internal/infrastructure/vector/qdrant"
	"github.com/Chocano14/docuemnto-ia/internal/observability/logging"
	"github.com/Chocano14/docuemnto-ia/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Queue     ports.MessageQueue
	UploadUC  ports.DocumentIngestor
	AnswerUC  ports.AnswerService
	ManageUC  ports.DocumentManager
	ProcessUC ports.DocumentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	serverMetrics := metrics.NewHTTPServerMetrics(service)

	openaiClient := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel, cfg.OpenAIChatModel, executor)
	embedder := openai.NewEmbedderWithObserver(openaiClient, embeddingMetricsAdapter{
		m:       serverMetrics,
		service: service,
	})
	generator := openai.NewGenerator(openaiClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := extractor.New()

	processUC := usecase.NewProcessDocumentUseCase(
		repo, chunkRepo, vectorDB, storage, textExtractor, chunker, embedder,
		usecase.ProcessorOptions{
			Mode:                cfg.ProcessingMode,
			MaxChunks:           cfg.MaxChunks,
			MaxTextLength:       cfg.MaxTextLength,
			SimpleMaxTextLength: cfg.SimpleMaxTextLength,
			ChunkBatchSize:      cfg.ChunkBatchSize,
			EmbedInterval:       cfg.EmbedInterval,
			PersistInterval:     cfg.PersistInterval,
			ProcessTimeout:      cfg.ProcessTimeout,
		},
		logger,
	)

	uploadUC := usecase.NewUploadDocumentUseCase(
		repo, storage, processUC,
		usecase.UploadLimits{
			MaxFileBytes: cfg.MaxFileBytes,
			MinFileBytes: cfg.MinFileBytes,
		},
		func(fileBytes int64, chunkCount int, err error) {
			serverMetrics.RecordUpload(service, fileBytes, chunkCount, err)
		},
	)

	answerUC := usecase.NewAnswerUseCase(
		embedder, vectorDB, chunkRepo, generator,
		usecase.AnswerOptions{
			SearchThreshold: cfg.SearchThreshold,
			SearchLimit:     cfg.SearchLimit,
		},
		logger,
		func(retrieval string, sourceCount int, elapsed time.Duration) {
			serverMetrics.RecordChatObservation(service, retrieval, sourceCount, elapsed)
		},
	)

	manageUC := usecase.NewManageDocumentsUseCase(repo, chunkRepo, vectorDB, storage, queue)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: serverMetrics,

		Queue:     queue,
		UploadUC:  uploadUC,
		AnswerUC:  answerUC,
		ManageUC:  manageUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// Router builds the API handler over the wired use cases.
func (a *App) Router(service string) *httpadapter.Router {
	return httpadapter.NewRouter(a.UploadUC, a.AnswerUC, a.ManageUC, a.Metrics, service, a.Logger)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

type embeddingMetricsAdapter struct {
	m       *metrics.HTTPServerMetrics
	service string
}

func (a embeddingMetricsAdapter) RecordPlaceholderEmbedding(reason string) {
	a.m.RecordPlaceholderEmbedding(a.service, reason)
}

func (a embeddingMetricsAdapter) RecordQuotaDegradation() {
	a.m.RecordQuotaDegradation(a.service, "embedding")
}
