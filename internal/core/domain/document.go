package domain

import "time"

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusError      DocumentStatus = "error"
)

// Document is the upload record. DocumentID is the correlation key shared
// with the document's chunks; it is regenerated on every processing run and
// is distinct from the row's own primary key.
type Document struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Size        int64          `json:"size"`
	Type        string         `json:"type"`
	Status      DocumentStatus `json:"status"`
	DocumentID  string         `json:"document_id,omitempty"`
	StoragePath string         `json:"-"`
	Error       string         `json:"error,omitempty"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
