package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
)

func testChunk(id, docID string, vector []float32) domain.Chunk {
	return domain.Chunk{
		ID:      id,
		Content: "content of " + id,
		Metadata: domain.ChunkMetadata{
			DocumentID:   docID,
			DocumentName: "file.txt",
			ChunkIndex:   0,
			CreatedAt:    time.Now().UTC(),
		},
		Embedding: vector,
	}
}

func TestIndexChunksEnsuresCollectionOnce(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	chunks := []domain.Chunk{testChunk("c-1", "doc-1", []float32{0.1, 0.2})}

	if err := client.IndexChunks(context.Background(), chunks); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), chunks); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestIndexChunksSkipsUnembedded(t *testing.T) {
	var indexed int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points" {
			atomic.AddInt32(&indexed, 1)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	err := client.IndexChunks(context.Background(), []domain.Chunk{testChunk("c-1", "doc-1", nil)})
	if err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if atomic.LoadInt32(&indexed) != 0 {
		t.Fatalf("expected no upsert for unembedded chunks")
	}
}

func TestSearchSendsThresholdAndDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/chunks/points/search" {
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["score_threshold"] != 0.7 {
			t.Errorf("expected score_threshold 0.7, got %v", req["score_threshold"])
		}
		if req["limit"] != float64(5) {
			t.Errorf("expected limit 5, got %v", req["limit"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[{"id":"c-1","score":0.91,"payload":{
			"document_id":"doc-1","document_name":"file.txt","chunk_index":2,
			"created_at":"2026-01-02T03:04:05Z","content":"hello"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	chunks, err := client.Search(context.Background(), []float32{0.1}, 0.7, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	got := chunks[0]
	if got.ID != "c-1" || got.Content != "hello" || got.Metadata.DocumentID != "doc-1" || got.Metadata.ChunkIndex != 2 {
		t.Fatalf("unexpected chunk %+v", got)
	}
}

func TestDeleteByDocumentIDFiltersOnCorrelationKey(t *testing.T) {
	var gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/chunks/points/delete" {
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			raw, _ := json.Marshal(req["filter"])
			gotFilter = string(raw)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	if err := client.DeleteByDocumentID(context.Background(), "doc-9"); err != nil {
		t.Fatalf("DeleteByDocumentID() error = %v", err)
	}
	if !strings.Contains(gotFilter, `"document_id"`) || !strings.Contains(gotFilter, `"doc-9"`) {
		t.Fatalf("unexpected filter %s", gotFilter)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	err := client.IndexChunks(context.Background(), []domain.Chunk{testChunk("c-1", "doc-1", []float32{0.1})})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
