package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
	"github.com/Chocano14/docuemnto-ia/internal/core/ports"
)

const (
	// ModeFull runs the whole chunk/embed/index pipeline; ModeSimple stores
	// the truncated text as a single unembedded chunk.
	ModeFull   = "full"
	ModeSimple = "simple"

	truncationMarker = "\n\n[Document truncated due to size]"
)

type ProcessorOptions struct {
	Mode                string
	MaxChunks           int
	MaxTextLength       int
	SimpleMaxTextLength int
	ChunkBatchSize      int
	EmbedInterval       time.Duration
	PersistInterval     time.Duration
	ProcessTimeout      time.Duration
}

func (o ProcessorOptions) normalize() ProcessorOptions {
	if o.Mode != ModeSimple {
		o.Mode = ModeFull
	}
	if o.MaxChunks <= 0 {
		o.MaxChunks = 25
	}
	if o.MaxTextLength <= 0 {
		o.MaxTextLength = 15000
	}
	if o.SimpleMaxTextLength <= 0 {
		o.SimpleMaxTextLength = 10000
	}
	if o.ChunkBatchSize <= 0 {
		o.ChunkBatchSize = 10
	}
	if o.ProcessTimeout <= 0 {
		o.ProcessTimeout = 60 * time.Second
	}
	return o
}

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	chunkRepo ports.ChunkRepository
	vectors   ports.VectorIndex
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	opts      ProcessorOptions

	embedPace   *rate.Limiter
	persistPace *rate.Limiter
	logger      *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	chunkRepo ports.ChunkRepository,
	vectors ports.VectorIndex,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	opts ProcessorOptions,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	opts = opts.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:        repo,
		chunkRepo:   chunkRepo,
		vectors:     vectors,
		storage:     storage,
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		opts:        opts,
		embedPace:   paceLimiter(opts.EmbedInterval),
		persistPace: paceLimiter(opts.PersistInterval),
		logger:      logger,
	}
}

func paceLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Run executes the processing pipeline for already-loaded original bytes and
// records the outcome on the document row. The pipeline itself runs under the
// processing deadline; the status writes use the caller's context so a
// deadline that fires mid-pipeline still gets recorded, exactly once, by this
// goroutine.
func (uc *ProcessDocumentUseCase) Run(ctx context.Context, doc *domain.Document, data []byte) (int, error) {
	runCtx, cancel := context.WithTimeout(ctx, uc.opts.ProcessTimeout)
	defer cancel()

	correlationID := uuid.NewString()
	count, err := uc.pipeline(runCtx, doc, correlationID, data)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusError, err.Error()); failErr != nil {
			return 0, fmt.Errorf("%w; mark error status: %v", err, failErr)
		}
		return 0, err
	}

	if err := uc.repo.SetCorrelation(ctx, doc.ID, correlationID); err != nil {
		return 0, fmt.Errorf("set correlation key: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusCompleted, ""); err != nil {
		return 0, fmt.Errorf("set status=completed: %w", err)
	}
	doc.DocumentID = correlationID
	doc.Status = domain.StatusCompleted
	return count, nil
}

// ProcessByID re-runs processing from the stored original bytes. It is the
// worker half of retry: the api has already reset the row to processing and
// cleared the old chunks before publishing the id.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	rc, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		wrapped := domain.WrapError(domain.ErrDocumentNotFound, "open original file", err)
		if failErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusError, wrapped.Error()); failErr != nil {
			return fmt.Errorf("%w; mark error status: %v", wrapped, failErr)
		}
		return wrapped
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read original file: %w", err)
	}

	count, err := uc.Run(ctx, doc, data)
	if err != nil {
		return err
	}
	uc.logger.Info("document reprocessed",
		slog.String("document_id", doc.ID),
		slog.Int("chunks", count),
	)
	return nil
}

func (uc *ProcessDocumentUseCase) pipeline(ctx context.Context, doc *domain.Document, correlationID string, data []byte) (int, error) {
	text, err := uc.extractor.Extract(ctx, doc.Type, data)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}

	if uc.opts.Mode == ModeSimple {
		return uc.runSimple(ctx, doc, correlationID, text)
	}
	return uc.runFull(ctx, doc, correlationID, text)
}

func (uc *ProcessDocumentUseCase) runFull(ctx context.Context, doc *domain.Document, correlationID, text string) (int, error) {
	text = truncate(text, uc.opts.MaxTextLength)

	parts := uc.chunker.Split(text)
	if len(parts) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("no usable content"))
	}
	if len(parts) > uc.opts.MaxChunks {
		parts = parts[:uc.opts.MaxChunks]
	}

	chunks, err := uc.embedAll(ctx, doc, correlationID, parts)
	if err != nil {
		return 0, err
	}
	if err := uc.persistAll(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (uc *ProcessDocumentUseCase) runSimple(ctx context.Context, doc *domain.Document, correlationID, text string) (int, error) {
	text = strings.TrimSpace(truncate(text, uc.opts.SimpleMaxTextLength))
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("no usable content"))
	}

	chunk := domain.Chunk{
		ID:      uuid.NewString(),
		Content: text,
		Metadata: domain.ChunkMetadata{
			DocumentID:   correlationID,
			DocumentName: doc.Name,
			ChunkIndex:   0,
			CreatedAt:    time.Now().UTC(),
		},
	}
	if err := uc.chunkRepo.SaveBatch(ctx, []domain.Chunk{chunk}); err != nil {
		return 0, fmt.Errorf("save chunk: %w", err)
	}
	return 1, nil
}

// embedAll runs sequentially on purpose: the limiter enforces the pause
// between embedding calls, one in flight at a time.
func (uc *ProcessDocumentUseCase) embedAll(ctx context.Context, doc *domain.Document, correlationID string, parts []string) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		if err := uc.embedPace.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedding pace: %w", err)
		}
		vector, err := uc.embedder.Embed(ctx, part)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunks = append(chunks, domain.Chunk{
			ID:      uuid.NewString(),
			Content: part,
			Metadata: domain.ChunkMetadata{
				DocumentID:   correlationID,
				DocumentName: doc.Name,
				ChunkIndex:   i,
				CreatedAt:    time.Now().UTC(),
			},
			Embedding: vector,
		})
	}
	return chunks, nil
}

func (uc *ProcessDocumentUseCase) persistAll(ctx context.Context, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += uc.opts.ChunkBatchSize {
		end := start + uc.opts.ChunkBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := uc.persistPace.Wait(ctx); err != nil {
			return fmt.Errorf("persist pace: %w", err)
		}
		if err := uc.chunkRepo.SaveBatch(ctx, batch); err != nil {
			return fmt.Errorf("save chunk batch: %w", err)
		}
		if err := uc.vectors.IndexChunks(ctx, batch); err != nil {
			return fmt.Errorf("index chunk batch: %w", err)
		}
	}
	return nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncationMarker
}
