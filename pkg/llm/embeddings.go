package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EmbeddingClient turns course content into vectors for similarity search.
// Inputs arrive either as a single query string or as a batch of chunks
// produced by ingestion.
type EmbeddingClient interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// EmbeddingProvider calls an embedding endpoint over HTTP. OpenAI embeds a
// whole chunk batch per request; Ollama takes one input at a time.
type EmbeddingProvider struct {
	client  *http.Client
	apiKey  string
	apiURL  string
	model   string
	batched bool
}

func NewEmbeddingClient(cfg Config) (EmbeddingClient, error) {
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}

	apiURL := strings.TrimRight(cfg.APIURL, "/")
	batched := false
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		batched = true
		if apiURL == "" {
			apiURL = "https://api.openai.com/v1"
		}
	case "ollama":
		if apiURL == "" {
			apiURL = "http://localhost:11434"
		}
	default:
		return nil, fmt.Errorf("embedding provider %q is not supported", cfg.Provider)
	}

	return &EmbeddingProvider{
		client:  &http.Client{Timeout: 120 * time.Second},
		apiKey:  cfg.APIKey,
		apiURL:  apiURL,
		model:   cfg.Model,
		batched: batched,
	}, nil
}

func (p *EmbeddingProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, errors.New("inputs are required")
	}
	if p.batched {
		return p.embedBatch(ctx, inputs)
	}

	vectors := make([][]float32, 0, len(inputs))
	for _, input := range inputs {
		vector, err := p.embedOne(ctx, input)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *EmbeddingProvider) embedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	payload, err := json.Marshal(openAIEmbeddingRequest{Model: p.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	body, err := p.post(ctx, p.apiURL+"/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var response openAIEmbeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if len(response.Data) != len(inputs) {
		return nil, fmt.Errorf("embed: got %d embeddings for %d inputs", len(response.Data), len(inputs))
	}

	vectors := make([][]float32, 0, len(response.Data))
	for _, entry := range response.Data {
		vectors = append(vectors, entry.Embedding)
	}
	return vectors, nil
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *EmbeddingProvider) embedOne(ctx context.Context, input string) ([]float32, error) {
	payload, err := json.Marshal(ollamaEmbeddingRequest{Model: p.model, Prompt: input})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	body, err := p.post(ctx, p.apiURL+"/api/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var response ollamaEmbeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	return response.Embedding, nil
}

func (p *EmbeddingProvider) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	resp, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("embed: create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embed: read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("embed: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// ProbeEmbeddingDimensions makes a single embedding call and returns the
// vector length. The store sizes its vector column from this at startup
// instead of hardcoding a model-to-dimension mapping.
func ProbeEmbeddingDimensions(ctx context.Context, client EmbeddingClient) (int, error) {
	vectors, err := client.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimensions: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0, errors.New("probe returned empty embedding")
	}
	return len(vectors[0]), nil
}
