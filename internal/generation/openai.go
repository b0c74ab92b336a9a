package generation

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator sends the prompt as a single user message to an OpenAI-compatible chat endpoint.
type OpenAIGenerator struct {
	client *openai.Client
}

// NewOpenAIGenerator returns a generator authenticated with apiKey.
func NewOpenAIGenerator(apiKey, baseURL string, timeout time.Duration) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("openai generation provider requires an API key")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg)}, nil
}

// Generate returns the first choice's message content.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt, model string, params Params) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   params.MaxTokens,
		Temperature: float32(params.Temperature),
		Stop:        params.Stop,
	}
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ServiceError{Provider: ProviderOpenAI, Model: model, StatusCode: openAIStatus(err), Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Provider: ProviderOpenAI, Model: model, StatusCode: http.StatusOK, Message: "no choices returned"}
	}
	return resp.Choices[0].Message.Content, nil
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
