package embedding

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
}

// NewOpenAIEmbedder returns an embedder authenticated with apiKey.
// baseURL overrides the API address for compatible servers.
func NewOpenAIEmbedder(apiKey, baseURL string, timeout time.Duration) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("openai embedding provider requires an API key")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg)}, nil
}

// Embed embeds text with model.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: []string{text},
	})
	if err != nil {
		return nil, &ServiceError{Provider: ProviderOpenAI, Model: model, StatusCode: openAIStatus(err), Cause: err}
	}
	if len(resp.Data) == 0 || resp.Data[0].Embedding == nil {
		return []float32{}, nil
	}
	return resp.Data[0].Embedding, nil
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
