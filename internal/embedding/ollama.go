package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// OllamaEmbedder calls POST {baseURL}/api/embeddings.
type OllamaEmbedder struct {
	baseURL string
	client  *http.Client
}

// NewOllamaEmbedder returns an embedder for the Ollama server at baseURL.
// Empty baseURL selects DefaultOllamaURL; non-positive timeout selects 60s.
func NewOllamaEmbedder(baseURL string, timeout time.Duration) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OllamaEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed embeds text with model. Empty text is sent as-is.
func (e *OllamaEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &ServiceError{Provider: ProviderOllama, Model: model, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ServiceError{
			Provider:   ProviderOllama,
			Model:      model,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(detail)),
		}
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ServiceError{Provider: ProviderOllama, Model: model, StatusCode: resp.StatusCode, Message: "invalid response", Cause: err}
	}
	// An empty embedding is not a service failure; it scores 0 against every chunk.
	if out.Embedding == nil {
		return []float32{}, nil
	}
	return out.Embedding, nil
}
