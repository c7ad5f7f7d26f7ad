package ports

import (
	"context"
	"io"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetCorrelation(ctx context.Context, id, documentID string) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepository is the system of record for chunks, embedded or not.
type ChunkRepository interface {
	SaveBatch(ctx context.Context, chunks []domain.Chunk) error
	ListUnembedded(ctx context.Context, documentIDs []string, limit int) ([]domain.Chunk, error)
	DeleteByDocumentID(ctx context.Context, documentID string) error
}

// VectorIndex holds embedded chunks for similarity search.
type VectorIndex interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, queryVector []float32, threshold float64, limit int) ([]domain.Chunk, error)
	DeleteByDocumentID(ctx context.Context, documentID string) error
}

// ObjectStorage keeps the original uploaded bytes so retry can re-derive
// content instead of fabricating it.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue carries reprocessing requests to the worker.
type MessageQueue interface {
	PublishDocumentRetry(ctx context.Context, documentID string) error
	SubscribeDocumentRetry(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns uploaded bytes into plain text by MIME type.
type TextExtractor interface {
	Extract(ctx context.Context, mimeType string, data []byte) (string, error)
}

// Chunker splits extracted text into retrieval units.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds one fixed-length vector per text. Implementations fall
// back to placeholder vectors when no credential or quota is available.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator requests a grounded chat completion. Configured reports
// whether a real backend credential is present; when it is not, callers
// stay in demo mode and never invoke Complete.
type AnswerGenerator interface {
	Configured() bool
	Complete(ctx context.Context, system, user string) (string, error)
}
