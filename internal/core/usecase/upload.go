package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
	"github.com/Chocano14/docuemnto-ia/internal/core/ports"
)

var allowedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"text/plain":      {},
	"text/markdown":   {},
}

type UploadLimits struct {
	MaxFileBytes int64
	MinFileBytes int64
}

func (l UploadLimits) normalize() UploadLimits {
	if l.MaxFileBytes <= 0 {
		l.MaxFileBytes = 1 << 20
	}
	if l.MinFileBytes <= 0 {
		l.MinFileBytes = 1024
	}
	return l
}

// UploadObserver records the outcome of an upload for metrics.
type UploadObserver func(fileBytes int64, chunkCount int, err error)

// pipelineRunner is the processing half of an upload.
type pipelineRunner interface {
	Run(ctx context.Context, doc *domain.Document, data []byte) (int, error)
}

type UploadDocumentUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	runner   pipelineRunner
	limits   UploadLimits
	observer UploadObserver
}

func NewUploadDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	runner pipelineRunner,
	limits UploadLimits,
	observer UploadObserver,
) *UploadDocumentUseCase {
	return &UploadDocumentUseCase{
		repo:     repo,
		storage:  storage,
		runner:   runner,
		limits:   limits.normalize(),
		observer: observer,
	}
}

// Upload validates the file, stores the original bytes, creates the document
// row and runs processing synchronously in the request goroutine. A failed
// pipeline leaves the row in error status and surfaces the failure.
func (uc *UploadDocumentUseCase) Upload(
	ctx context.Context,
	name, mimeType string,
	size int64,
	data []byte,
) (*domain.Document, error) {
	doc, count, err := uc.upload(ctx, name, mimeType, size, data)
	if uc.observer != nil {
		uc.observer(size, count, err)
	}
	return doc, err
}

func (uc *UploadDocumentUseCase) upload(
	ctx context.Context,
	name, mimeType string,
	size int64,
	data []byte,
) (*domain.Document, int, error) {
	if err := uc.validate(mimeType, size); err != nil {
		return nil, 0, err
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(name))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, 0, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Name:        name,
		Size:        size,
		Type:        mimeType,
		Status:      domain.StatusProcessing,
		StoragePath: storageKey,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, 0, fmt.Errorf("create document metadata: %w", err)
	}

	count, err := uc.runner.Run(ctx, doc, data)
	if err != nil {
		return nil, 0, fmt.Errorf("process document: %w", err)
	}
	return doc, count, nil
}

func (uc *UploadDocumentUseCase) validate(mimeType string, size int64) error {
	if _, ok := allowedMIMETypes[mimeType]; !ok {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload",
			fmt.Errorf("unsupported file type %q", mimeType))
	}
	if size > uc.limits.MaxFileBytes {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload",
			fmt.Errorf("file too large: %d bytes (max %d)", size, uc.limits.MaxFileBytes))
	}
	if size < uc.limits.MinFileBytes {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload",
			fmt.Errorf("file too small: %d bytes (min %d)", size, uc.limits.MinFileBytes))
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
