package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
)

// Client stores embedded chunks in a qdrant collection. Point ids mirror the
// chunk ids so postgres rows and vector points stay correlated.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexChunks(ctx context.Context, chunks []domain.Chunk) error {
	points := make([]point, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		points = append(points, point{
			ID:     chunk.ID,
			Vector: chunk.Embedding,
			Payload: map[string]any{
				"document_id":   chunk.Metadata.DocumentID,
				"document_name": chunk.Metadata.DocumentName,
				"chunk_index":   chunk.Metadata.ChunkIndex,
				"created_at":    chunk.Metadata.CreatedAt.UTC().Format(time.RFC3339Nano),
				"content":       chunk.Content,
			},
		})
	}
	if len(points) == 0 {
		return nil
	}

	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.send(ctx, http.MethodPut, url, map[string]any{"points": points}, nil, "upsert")
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	threshold float64,
	limit int,
) ([]domain.Chunk, error) {
	reqBody := map[string]any{
		"vector":          queryVector,
		"limit":           limit,
		"score_threshold": threshold,
		"with_payload":    true,
	}

	var searchResp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.send(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.Chunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.Chunk{
			ID:      r.ID,
			Content: stringPayload(r.Payload, "content"),
			Metadata: domain.ChunkMetadata{
				DocumentID:   stringPayload(r.Payload, "document_id"),
				DocumentName: stringPayload(r.Payload, "document_name"),
				ChunkIndex:   intPayload(r.Payload, "chunk_index"),
				CreatedAt:    timePayload(r.Payload, "created_at"),
			},
		})
	}
	return out, nil
}

func (c *Client) DeleteByDocumentID(ctx context.Context, documentID string) error {
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key": "document_id",
					"match": map[string]any{
						"value": documentID,
					},
				},
			},
		},
	}

	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, c.collection)
	return c.send(ctx, http.MethodPost, url, reqBody, nil, "delete")
}

func (c *Client) ensureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	if c.ensuredCollection {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     domain.EmbeddingDim,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	err := c.send(ctx, http.MethodPut, url, reqBody, nil, "ensure collection")
	// 409 means another instance created it first.
	var statusErr *httpStatusError
	if err != nil && !(errors.As(err, &statusErr) && statusErr.code == http.StatusConflict) {
		return err
	}

	c.ensureMu.Lock()
	c.ensuredCollection = true
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) send(ctx context.Context, method, url string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &httpStatusError{
			operation: operation,
			code:      resp.StatusCode,
			status:    resp.Status,
			body:      strings.TrimSpace(string(raw)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

type httpStatusError struct {
	operation string
	code      int
	status    string
	body      string
}

func (e *httpStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.operation, e.status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.operation, e.status, e.body)
}

func stringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func intPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int(f)
}

func timePayload(payload map[string]any, key string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, stringPayload(payload, key))
	if err != nil {
		return time.Time{}
	}
	return t
}
