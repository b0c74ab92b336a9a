package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables that override file settings.
const (
	EnvBaseURL   = "OLLAMA_BASE_URL"
	EnvGenModel  = "GEN_MODEL"
	EnvTopK      = "TOP_K"
	EnvThreshold = "SIM_THRESHOLD"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg from the environment. OLLAMA_BASE_URL applies to every
// service using the ollama provider.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if v, ok := lookupNonEmpty(lookup, EnvBaseURL); ok {
		if cfg.Embedding.Provider == "ollama" {
			cfg.Embedding.BaseURL = v
		}
		if cfg.Generation.Provider == "ollama" {
			cfg.Generation.BaseURL = v
		}
	}
	if v, ok := lookupNonEmpty(lookup, EnvGenModel); ok {
		cfg.Generation.Model = v
	}
	if v, ok := lookupNonEmpty(lookup, EnvTopK); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTopK, v, err)
		}
		cfg.Retrieval.TopK = n
	}
	if v, ok := lookupNonEmpty(lookup, EnvThreshold); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvThreshold, v, err)
		}
		cfg.Retrieval.SimilarityThreshold = &f
	}
	return nil
}

func lookupNonEmpty(lookup LookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
