package usecase

import (
	"context"
	"fmt"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
	"github.com/Chocano14/docuemnto-ia/internal/core/ports"
)

type ManageDocumentsUseCase struct {
	repo      ports.DocumentRepository
	chunkRepo ports.ChunkRepository
	vectors   ports.VectorIndex
	storage   ports.ObjectStorage
	queue     ports.MessageQueue
}

func NewManageDocumentsUseCase(
	repo ports.DocumentRepository,
	chunkRepo ports.ChunkRepository,
	vectors ports.VectorIndex,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *ManageDocumentsUseCase {
	return &ManageDocumentsUseCase{
		repo:      repo,
		chunkRepo: chunkRepo,
		vectors:   vectors,
		storage:   storage,
		queue:     queue,
	}
}

func (uc *ManageDocumentsUseCase) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Delete cascades: chunks in both stores by correlation key, the stored
// original file, then the row itself.
func (uc *ManageDocumentsUseCase) Delete(ctx context.Context, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.clearChunks(ctx, doc); err != nil {
		return err
	}
	if err := uc.storage.Remove(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("remove original file: %w", err)
	}
	if err := uc.repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Retry resets the document and hands reprocessing to the worker: the row
// goes back to processing, old chunks are cleared, and the id is published
// to the retry subject.
func (uc *ManageDocumentsUseCase) Retry(ctx context.Context, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}
	if err := uc.clearChunks(ctx, doc); err != nil {
		return err
	}
	if err := uc.queue.PublishDocumentRetry(ctx, doc.ID); err != nil {
		return fmt.Errorf("publish retry event: %w", err)
	}
	return nil
}

func (uc *ManageDocumentsUseCase) clearChunks(ctx context.Context, doc *domain.Document) error {
	if doc.DocumentID == "" {
		return nil
	}
	if err := uc.chunkRepo.DeleteByDocumentID(ctx, doc.DocumentID); err != nil {
		return fmt.Errorf("delete stored chunks: %w", err)
	}
	if err := uc.vectors.DeleteByDocumentID(ctx, doc.DocumentID); err != nil {
		return fmt.Errorf("delete indexed chunks: %w", err)
	}
	return nil
}
