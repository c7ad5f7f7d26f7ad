package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
)

func newChunkRepoWithMock(t *testing.T) (*ChunkRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChunkRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestSaveBatchMarksEmbeddedFlagPerChunk(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	chunks := []domain.Chunk{
		{
			ID:      "c-1",
			Content: "embedded chunk",
			Metadata: domain.ChunkMetadata{
				DocumentID: "doc-1", DocumentName: "a.txt", ChunkIndex: 0, CreatedAt: now,
			},
			Embedding: []float32{0.1, 0.2},
		},
		{
			ID:      "c-2",
			Content: "plain chunk",
			Metadata: domain.ChunkMetadata{
				DocumentID: "doc-1", DocumentName: "a.txt", ChunkIndex: 1, CreatedAt: now,
			},
		},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO document_chunks")
	prep.ExpectExec().
		WithArgs("c-1", "embedded chunk", sqlmock.AnyArg(), true, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("c-2", "plain chunk", sqlmock.AnyArg(), false, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveBatch(context.Background(), chunks); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveBatchNoopOnEmptyInput(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	if err := repo.SaveBatch(context.Background(), nil); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListUnembeddedWithoutFilter(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "content", "metadata"}).
		AddRow("c-1", "hello", []byte(`{"document_id":"doc-1","document_name":"a.txt","chunk_index":0,"created_at":"2026-01-02T03:04:05Z"}`))

	mock.ExpectQuery("SELECT id, content, metadata").
		WithArgs(5).
		WillReturnRows(rows)

	chunks, err := repo.ListUnembedded(context.Background(), nil, 5)
	if err != nil {
		t.Fatalf("ListUnembedded() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata.DocumentID != "doc-1" || chunks[0].Content != "hello" {
		t.Fatalf("unexpected chunk %+v", chunks[0])
	}
}

func TestListUnembeddedFiltersByDocumentIDs(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, content, metadata").
		WithArgs("doc-1", "doc-2", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "metadata"}))

	chunks, err := repo.ListUnembedded(context.Background(), []string{"doc-1", "doc-2"}, 5)
	if err != nil {
		t.Fatalf("ListUnembedded() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteByDocumentIDUsesMetadataKey(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM document_chunks").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteByDocumentID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("DeleteByDocumentID() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
