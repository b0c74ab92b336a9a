package config

import "github.com/hyperjump/kotae/internal/generation"

// Defaults for values left unset.
const (
	DefaultBaseURL             = "http://localhost:11434"
	DefaultGenerationModel     = "llama3.2:3b"
	DefaultMaxTokens           = 220
	DefaultTemperature         = 0.1
	DefaultTopK                = 3
	DefaultSimilarityThreshold = 0.20
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = 180
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "./data/index.json"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.BaseURL == "" && cfg.Embedding.Provider == "ollama" {
		cfg.Embedding.BaseURL = DefaultBaseURL
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 60
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "ollama"
	}
	if cfg.Generation.BaseURL == "" && cfg.Generation.Provider == "ollama" {
		cfg.Generation.BaseURL = DefaultBaseURL
	}
	if cfg.Generation.APIKeyEnv == "" {
		cfg.Generation.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = DefaultGenerationModel
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = DefaultMaxTokens
	}
	if cfg.Generation.Temperature == nil {
		t := DefaultTemperature
		cfg.Generation.Temperature = &t
	}
	if cfg.Generation.Stop == nil {
		cfg.Generation.Stop = append([]string(nil), generation.DefaultStop...)
	}
	if cfg.Generation.TimeoutSecs == 0 {
		cfg.Generation.TimeoutSecs = 120
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
	if cfg.Retrieval.SimilarityThreshold == nil {
		th := DefaultSimilarityThreshold
		cfg.Retrieval.SimilarityThreshold = &th
	}
	if cfg.Journal.DatabasePath == "" {
		cfg.Journal.DatabasePath = "./data/journal.db"
	}
}
