package domain

import "time"

// EmbeddingDim is the vector length produced by both the embedding model and
// the placeholder generator.
const EmbeddingDim = 1536

// ChunkMetadata travels with every chunk. DocumentID is the owning document's
// correlation key, never its primary key.
type ChunkMetadata struct {
	DocumentID   string    `json:"document_id"`
	DocumentName string    `json:"document_name"`
	ChunkIndex   int       `json:"chunk_index"`
	CreatedAt    time.Time `json:"created_at"`
}

// Chunk is a retrieval unit: a bounded slice of document text, optionally
// paired with an embedding. A nil Embedding marks the simple processing path;
// such chunks are excluded from vector search and served by the fallback
// lookup instead.
type Chunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"embedding,omitempty"`
}

type Answer struct {
	Text    string  `json:"answer"`
	Sources []Chunk `json:"sources"`
}
