package openai

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
	"github.com/Chocano14/docuemnto-ia/internal/infrastructure/resilience"
)

const (
	maxCompletionTokens   = 1000
	completionTemperature = 0.7
)

// Client talks to an OpenAI-compatible API. An empty API key puts every
// consumer into placeholder/demo mode without touching the network.
type Client struct {
	baseURL    string
	apiKey     string
	embedModel string
	chatModel  string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, embedModel, chatModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		embedModel: embedModel,
		chatModel:  chatModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// EmbeddingObserver is notified whenever the embedder degrades to
// placeholder vectors.
type EmbeddingObserver interface {
	RecordPlaceholderEmbedding(reason string)
	RecordQuotaDegradation()
}

const (
	placeholderReasonNoCredential = "no_credential"
	placeholderReasonQuota        = "quota"
)

// Embedder implements ports.Embedder. Without a credential it serves
// placeholder vectors; on quota exhaustion it degrades to the same
// placeholders instead of failing the document.
type Embedder struct {
	client   *Client
	observer EmbeddingObserver
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func NewEmbedderWithObserver(client *Client, observer EmbeddingObserver) *Embedder {
	return &Embedder{client: client, observer: observer}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !e.client.Configured() {
		e.notePlaceholder(placeholderReasonNoCredential)
		return placeholderVector(), nil
	}

	vector, err := e.client.embed(ctx, text)
	if err != nil {
		if domain.IsKind(err, domain.ErrQuotaExceeded) {
			e.noteQuotaDegradation()
			e.notePlaceholder(placeholderReasonQuota)
			return placeholderVector(), nil
		}
		return nil, fmt.Errorf("generate embedding: %w", err)
	}
	return vector, nil
}

func (e *Embedder) notePlaceholder(reason string) {
	if e.observer != nil {
		e.observer.RecordPlaceholderEmbedding(reason)
	}
}

func (e *Embedder) noteQuotaDegradation() {
	if e.observer != nil {
		e.observer.RecordQuotaDegradation()
	}
}

// placeholderVector is explicitly not a real embedding: 1536 values drawn
// uniformly from [-0.5, 0.5), enough to exercise the pipeline end to end
// without a live service.
func placeholderVector() []float32 {
	out := make([]float32, domain.EmbeddingDim)
	for i := range out {
		out[i] = float32(rand.Float64() - 0.5)
	}
	return out
}

// Generator implements ports.AnswerGenerator.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Configured() bool {
	return g.client.Configured()
}

func (g *Generator) Complete(ctx context.Context, system, user string) (string, error) {
	return g.client.complete(ctx, system, user)
}

func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": c.embedModel,
		"input": text,
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.call(ctx, "/embeddings", request, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Data) == 0 || len(response.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Data[0].Embedding, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	request := map[string]any{
		"model": c.chatModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"max_tokens":  maxCompletionTokens,
		"temperature": completionTemperature,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.call(ctx, "/chat/completions", request, &response, "complete"); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty completion result")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *Client) call(ctx context.Context, path string, payload, out any, operation string) error {
	fn := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai."+operation, fn, classifyOpenAIError)
	} else {
		err = fn(ctx)
	}
	return wrapSemanticError(operation, err)
}
