package config

import (
	"fmt"
	"math"
	"regexp"
)

var providers = map[string]bool{"ollama": true, "openai": true}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: out of range: %d", c.Server.Port)
	}
	if !providers[c.Embedding.Provider] {
		return fmt.Errorf("embedding.provider: unknown provider %q", c.Embedding.Provider)
	}
	if !providers[c.Generation.Provider] {
		return fmt.Errorf("generation.provider: unknown provider %q", c.Generation.Provider)
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model: required")
	}
	if c.Generation.MaxTokens <= 0 {
		return fmt.Errorf("generation.max_tokens: must be positive, got %d", c.Generation.MaxTokens)
	}
	if t := c.Generation.TemperatureOrDefault(); t < 0 || math.IsNaN(t) {
		return fmt.Errorf("generation.temperature: must be non-negative, got %v", t)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k: must be positive, got %d", c.Retrieval.TopK)
	}
	if th := c.Retrieval.ThresholdOrDefault(); th < -1 || th > 1 || math.IsNaN(th) {
		return fmt.Errorf("retrieval.similarity_threshold: must be within [-1, 1], got %v", th)
	}
	for _, p := range c.Guard.ExtraPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("guard.extra_patterns: %q: %w", p, err)
		}
	}
	return nil
}
