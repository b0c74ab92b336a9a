// Package embedding turns text into vectors by calling an external embedding service.
package embedding

import (
	"context"
	"fmt"
	"time"
)

// Embedder produces a vector embedding for text using the named model.
// Every call reaches the service; nothing is cached or retried.
type Embedder interface {
	Embed(ctx context.Context, text, model string) ([]float32, error)
}

// Provider names accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// DefaultOllamaURL is the base address of a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// Options configure a network embedder.
type Options struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// New returns the embedder for opts.Provider. An empty provider selects Ollama.
func New(opts Options) (Embedder, error) {
	switch opts.Provider {
	case "", ProviderOllama:
		return NewOllamaEmbedder(opts.BaseURL, opts.Timeout), nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(opts.APIKey, opts.BaseURL, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", opts.Provider)
	}
}
