package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
)

type runnerFake struct {
	count   int
	err     error
	gotDoc  *domain.Document
	gotData []byte
}

func (f *runnerFake) Run(_ context.Context, doc *domain.Document, data []byte) (int, error) {
	f.gotDoc = doc
	f.gotData = data
	if f.err != nil {
		return 0, f.err
	}
	doc.Status = domain.StatusCompleted
	return f.count, nil
}

func uploadBody(size int) []byte {
	return []byte(strings.Repeat("a", size))
}

func TestUploadSuccess(t *testing.T) {
	repo := &documentRepoFake{}
	storage := newStorageFake()
	runner := &runnerFake{count: 4}

	var observedBytes int64
	var observedChunks int
	uc := NewUploadDocumentUseCase(repo, storage, runner, UploadLimits{}, func(fileBytes int64, chunkCount int, err error) {
		observedBytes = fileBytes
		observedChunks = chunkCount
	})

	data := uploadBody(2048)
	doc, err := uc.Upload(context.Background(), "my report.txt", "text/plain", int64(len(data)), data)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID == "" {
		t.Fatalf("expected document id")
	}
	if runner.gotDoc == nil || string(runner.gotData) != string(data) {
		t.Fatalf("expected original bytes to reach the pipeline")
	}
	if len(repo.docs) != 1 {
		t.Fatalf("expected one created document")
	}
	if !strings.Contains(doc.StoragePath, "_my_report.txt") {
		t.Fatalf("expected sanitized storage key, got %s", doc.StoragePath)
	}
	if _, ok := storage.files[doc.StoragePath]; !ok {
		t.Fatalf("expected original bytes in object storage")
	}
	if observedBytes != 2048 || observedChunks != 4 {
		t.Fatalf("expected observer to see 2048/4, got %d/%d", observedBytes, observedChunks)
	}
}

func TestUploadRejectsUnsupportedMIME(t *testing.T) {
	repo := &documentRepoFake{}
	storage := newStorageFake()
	uc := NewUploadDocumentUseCase(repo, storage, &runnerFake{}, UploadLimits{}, nil)

	data := uploadBody(2048)
	_, err := uc.Upload(context.Background(), "img.png", "image/png", int64(len(data)), data)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(repo.docs) != 0 || len(storage.files) != 0 {
		t.Fatalf("nothing may be persisted on validation failure")
	}
}

func TestUploadRejectsFileOutsideSizeBounds(t *testing.T) {
	uc := NewUploadDocumentUseCase(&documentRepoFake{}, newStorageFake(), &runnerFake{}, UploadLimits{
		MinFileBytes: 1024,
		MaxFileBytes: 4096,
	}, nil)

	small := uploadBody(100)
	if _, err := uc.Upload(context.Background(), "a.txt", "text/plain", int64(len(small)), small); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for small file, got %v", err)
	}

	big := uploadBody(8192)
	if _, err := uc.Upload(context.Background(), "a.txt", "text/plain", int64(len(big)), big); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for large file, got %v", err)
	}
}

func TestUploadSurfacesProcessingFailure(t *testing.T) {
	repo := &documentRepoFake{}
	runner := &runnerFake{err: errors.New("pipeline blew up")}

	var observedErr error
	uc := NewUploadDocumentUseCase(repo, newStorageFake(), runner, UploadLimits{}, func(_ int64, _ int, err error) {
		observedErr = err
	})

	data := uploadBody(2048)
	_, err := uc.Upload(context.Background(), "a.txt", "text/plain", int64(len(data)), data)
	if err == nil || !strings.Contains(err.Error(), "pipeline blew up") {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if observedErr == nil {
		t.Fatalf("expected observer to see the failure")
	}
	// The row stays behind in error status for later retry.
	if len(repo.docs) != 1 {
		t.Fatalf("expected the document row to remain")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"plain.txt":        "plain.txt",
		"my report.pdf":    "my_report.pdf",
		"../../etc/passwd": "passwd",
		"datos año.md":     "datos_a_o.md",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
