package ports

import (
	"context"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
)

// DocumentIngestor validates an upload and runs it through processing.
type DocumentIngestor interface {
	Upload(ctx context.Context, name, mimeType string, size int64, data []byte) (*domain.Document, error)
}

// AnswerService answers a question grounded in stored chunks. A nil
// documentIDs means no filter; an empty non-nil slice means the caller
// explicitly selected nothing.
type AnswerService interface {
	Answer(ctx context.Context, question string, documentIDs []string) (*domain.Answer, error)
}

// DocumentManager is the read/maintenance surface for uploaded documents.
type DocumentManager interface {
	List(ctx context.Context) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
	Retry(ctx context.Context, id string) error
}

// DocumentProcessor re-runs processing for a stored document, used by the
// retry worker.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, id string) error
}
