package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
	"github.com/Chocano14/docuemnto-ia/internal/core/ports"
)

// Retrieval labels reported to the chat observer.
const (
	RetrievalVector   = "vector"
	RetrievalFallback = "fallback"
	RetrievalNone     = "none"
	RetrievalDemo     = "demo"
)

// ChatObserver records how a question was answered.
type ChatObserver func(retrieval string, sourceCount int, elapsed time.Duration)

type AnswerOptions struct {
	SearchThreshold float64
	SearchLimit     int
}

func (o AnswerOptions) normalize() AnswerOptions {
	if o.SearchThreshold <= 0 {
		o.SearchThreshold = 0.7
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = 5
	}
	return o
}

type AnswerUseCase struct {
	embedder  ports.Embedder
	vectors   ports.VectorIndex
	chunkRepo ports.ChunkRepository
	generator ports.AnswerGenerator
	opts      AnswerOptions
	logger    *slog.Logger
	observer  ChatObserver
}

func NewAnswerUseCase(
	embedder ports.Embedder,
	vectors ports.VectorIndex,
	chunkRepo ports.ChunkRepository,
	generator ports.AnswerGenerator,
	opts AnswerOptions,
	logger *slog.Logger,
	observer ChatObserver,
) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		embedder:  embedder,
		vectors:   vectors,
		chunkRepo: chunkRepo,
		generator: generator,
		opts:      opts.normalize(),
		logger:    logger,
		observer:  observer,
	}
}

// Answer resolves a question through a layered retrieval ladder: vector
// search first, then unembedded chunks by recency, then a canned response.
// A nil documentIDs means no filter; an empty non-nil slice means the caller
// selected nothing and gets guidance instead of an answer.
func (uc *AnswerUseCase) Answer(ctx context.Context, question string, documentIDs []string) (*domain.Answer, error) {
	start := time.Now()
	answer, retrieval, err := uc.answer(ctx, question, documentIDs)
	if uc.observer != nil && err == nil {
		uc.observer(retrieval, len(answer.Sources), time.Since(start))
	}
	return answer, err
}

func (uc *AnswerUseCase) answer(ctx context.Context, question string, documentIDs []string) (*domain.Answer, string, error) {
	if strings.TrimSpace(question) == "" {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("empty question"))
	}

	if !uc.generator.Configured() {
		return demoModeAnswer(question), RetrievalDemo, nil
	}

	if documentIDs != nil && len(documentIDs) == 0 {
		return &domain.Answer{Text: guidanceAnswer, Sources: []domain.Chunk{}}, RetrievalNone, nil
	}

	chunks := uc.searchEmbedded(ctx, question, documentIDs)
	retrieval := RetrievalVector

	if len(chunks) == 0 {
		fallback, err := uc.chunkRepo.ListUnembedded(ctx, documentIDs, uc.opts.SearchLimit)
		if err != nil {
			return nil, "", fmt.Errorf("fallback chunk lookup: %w", err)
		}
		chunks = fallback
		retrieval = RetrievalFallback
	}

	if len(chunks) == 0 {
		return &domain.Answer{Text: noInfoAnswer, Sources: []domain.Chunk{}}, RetrievalNone, nil
	}

	text, err := uc.generator.Complete(ctx, answerSystemPrompt, buildUserPrompt(buildContext(chunks), question))
	if err != nil {
		if domain.IsKind(err, domain.ErrQuotaExceeded) {
			uc.logger.Warn("completion quota exhausted, serving echo answer", slog.String("error", err.Error()))
			return &domain.Answer{Text: quotaAnswer(question), Sources: []domain.Chunk{}}, retrieval, nil
		}
		return nil, "", fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{Text: text, Sources: chunks}, retrieval, nil
}

// searchEmbedded returns vector-search hits, post-filtered by the selected
// documents. Transport failures degrade to the fallback lookup instead of
// aborting the question.
func (uc *AnswerUseCase) searchEmbedded(ctx context.Context, question string, documentIDs []string) []domain.Chunk {
	vector, err := uc.embedder.Embed(ctx, question)
	if err != nil {
		uc.logger.Warn("question embedding failed", slog.String("error", err.Error()))
		return nil
	}

	chunks, err := uc.vectors.Search(ctx, vector, uc.opts.SearchThreshold, uc.opts.SearchLimit)
	if err != nil {
		uc.logger.Warn("vector search failed", slog.String("error", err.Error()))
		return nil
	}

	if len(documentIDs) == 0 {
		return chunks
	}
	selected := make(map[string]struct{}, len(documentIDs))
	for _, id := range documentIDs {
		selected[id] = struct{}{}
	}
	filtered := chunks[:0]
	for _, chunk := range chunks {
		if _, ok := selected[chunk.Metadata.DocumentID]; ok {
			filtered = append(filtered, chunk)
		}
	}
	return filtered
}

func buildContext(chunks []domain.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("Document: %s\nContent: %s", chunk.Metadata.DocumentName, chunk.Content))
	}
	return strings.Join(parts, "\n\n")
}

func demoModeAnswer(question string) *domain.Answer {
	return &domain.Answer{
		Text: demoAnswer(question),
		Sources: []domain.Chunk{
			{
				ID:      "demo-1",
				Content: demoSourceContent,
				Metadata: domain.ChunkMetadata{
					DocumentName: demoSourceName,
					ChunkIndex:   0,
					CreatedAt:    time.Now().UTC(),
				},
			},
		},
	}
}
