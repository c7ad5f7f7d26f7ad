package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
)

type documentRepoFake struct {
	docs      []*domain.Document
	createErr error
	updateErr error
	listErr   error
}

func (f *documentRepoFake) find(id string) *domain.Document {
	for _, doc := range f.docs {
		if doc.ID == id {
			return doc
		}
	}
	return nil
}

func (f *documentRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyDoc := *doc
	f.docs = append(f.docs, &copyDoc)
	return nil
}

func (f *documentRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc := f.find(id)
	if doc == nil {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrDocumentNotFound, id)
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *documentRepoFake) List(context.Context) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (f *documentRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	doc := f.find(id)
	if doc == nil {
		return fmt.Errorf("%w: id=%s", domain.ErrDocumentNotFound, id)
	}
	doc.Status = status
	doc.Error = errMessage
	return nil
}

func (f *documentRepoFake) SetCorrelation(_ context.Context, id, documentID string) error {
	doc := f.find(id)
	if doc == nil {
		return fmt.Errorf("%w: id=%s", domain.ErrDocumentNotFound, id)
	}
	doc.DocumentID = documentID
	return nil
}

func (f *documentRepoFake) Delete(_ context.Context, id string) error {
	for i, doc := range f.docs {
		if doc.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: id=%s", domain.ErrDocumentNotFound, id)
}

type chunkRepoFake struct {
	batches    [][]domain.Chunk
	unembedded []domain.Chunk
	deleted    []string
	saveErr    error
	listErr    error

	gotFilter []string
	gotLimit  int
}

func (f *chunkRepoFake) SaveBatch(_ context.Context, chunks []domain.Chunk) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	batch := make([]domain.Chunk, len(chunks))
	copy(batch, chunks)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *chunkRepoFake) ListUnembedded(_ context.Context, documentIDs []string, limit int) ([]domain.Chunk, error) {
	f.gotFilter = documentIDs
	f.gotLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.unembedded, nil
}

func (f *chunkRepoFake) DeleteByDocumentID(_ context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

func (f *chunkRepoFake) saved() []domain.Chunk {
	var out []domain.Chunk
	for _, batch := range f.batches {
		out = append(out, batch...)
	}
	return out
}

type vectorIndexFake struct {
	indexed      [][]domain.Chunk
	searchResult []domain.Chunk
	deleted      []string
	indexErr     error
	searchErr    error

	gotThreshold float64
	gotLimit     int
}

func (f *vectorIndexFake) IndexChunks(_ context.Context, chunks []domain.Chunk) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	batch := make([]domain.Chunk, len(chunks))
	copy(batch, chunks)
	f.indexed = append(f.indexed, batch)
	return nil
}

func (f *vectorIndexFake) Search(_ context.Context, _ []float32, threshold float64, limit int) ([]domain.Chunk, error) {
	f.gotThreshold = threshold
	f.gotLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResult, nil
}

func (f *vectorIndexFake) DeleteByDocumentID(_ context.Context, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

type storageFake struct {
	files   map[string][]byte
	removed []string
	saveErr error
	openErr error
}

func newStorageFake() *storageFake {
	return &storageFake{files: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.files[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	raw, ok := f.files[key]
	if !ok {
		return nil, errors.New("file does not exist")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Remove(_ context.Context, key string) error {
	delete(f.files, key)
	f.removed = append(f.removed, key)
	return nil
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishDocumentRetry(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentRetry(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type extractorFake struct {
	err      error
	gotMIME  string
	gotBytes []byte
}

func (f *extractorFake) Extract(_ context.Context, mimeType string, data []byte) (string, error) {
	f.gotMIME = mimeType
	f.gotBytes = data
	if f.err != nil {
		return "", f.err
	}
	return string(data), nil
}

// chunkerFake splits on "|" so tests control chunk boundaries exactly.
type chunkerFake struct{}

func (chunkerFake) Split(text string) []string {
	parts := strings.Split(text, "|")
	out := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}

type embedderFake struct {
	calls int
	err   error
}

func (f *embedderFake) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type generatorFake struct {
	configured  bool
	completeOut string
	completeErr error

	gotSystem string
	gotUser   string
	calls     int
}

func (f *generatorFake) Configured() bool {
	return f.configured
}

func (f *generatorFake) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.gotSystem = system
	f.gotUser = user
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.completeOut, nil
}
