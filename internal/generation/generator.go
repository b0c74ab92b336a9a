// Package generation calls an external text-generation service with bounded, low-temperature decoding.
package generation

import (
	"context"
	"fmt"
	"time"
)

// Params are the decoding parameters sent with every generation request.
type Params struct {
	MaxTokens   int      `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64  `json:"temperature" yaml:"temperature"`
	Stop        []string `json:"stop,omitempty" yaml:"stop,omitempty"`
}

// DefaultStop truncates output at the first sign of a new prompt section or example.
var DefaultStop = []string{"\n---", "\n# Example", "\n--- REQUIREMENTS ---"}

// DefaultParams returns short, near-deterministic decoding parameters.
func DefaultParams() Params {
	return Params{
		MaxTokens:   220,
		Temperature: 0.1,
		Stop:        append([]string(nil), DefaultStop...),
	}
}

// Generator returns raw model text for prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, model string, params Params) (string, error)
}

// Provider names accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// DefaultOllamaURL is the base address of a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// Options configure a network generator.
type Options struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// New returns the generator for opts.Provider. An empty provider selects Ollama.
func New(opts Options) (Generator, error) {
	switch opts.Provider {
	case "", ProviderOllama:
		return NewOllamaGenerator(opts.BaseURL, opts.Timeout), nil
	case ProviderOpenAI:
		return NewOpenAIGenerator(opts.APIKey, opts.BaseURL, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", opts.Provider)
	}
}
