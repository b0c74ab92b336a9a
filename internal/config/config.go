// Package config provides configuration loading and structs for kotae.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Guard      GuardConfig      `yaml:"guard"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Journal    JournalConfig    `yaml:"journal"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns the request timeout.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// IndexConfig locates the pre-embedded chunk index.
type IndexConfig struct {
	Path  string `yaml:"path"`
	Watch *bool  `yaml:"watch"`
}

// WatchOrDefault returns whether to hot-reload the index; defaults to true when unset.
func (i *IndexConfig) WatchOrDefault() bool {
	if i.Watch != nil {
		return *i.Watch
	}
	return true
}

// EmbeddingConfig selects the embedding service.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns the per-call timeout.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSecs) * time.Second
}

// APIKey reads the key from the environment variable named by APIKeyEnv.
func (e EmbeddingConfig) APIKey() string {
	return lookupKey(e.APIKeyEnv)
}

// GenerationConfig selects the generation service and its decoding parameters.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature *float64      `yaml:"temperature"`
	Stop        StopSequences `yaml:"stop"`
	TimeoutSecs int           `yaml:"timeout_secs"`
}

// StopSequences are generation stop strings. They marshal double-quoted so that
// leading newlines survive a save and reload.
type StopSequences []string

// MarshalYAML implements yaml.Marshaler.
func (s StopSequences) MarshalYAML() (interface{}, error) {
	if s == nil {
		return nil, nil
	}
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range s {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: v,
			Style: yaml.DoubleQuotedStyle,
		})
	}
	return node, nil
}

// Timeout returns the per-call timeout.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// APIKey reads the key from the environment variable named by APIKeyEnv.
func (g GenerationConfig) APIKey() string {
	return lookupKey(g.APIKeyEnv)
}

// TemperatureOrDefault returns the configured temperature; an explicit 0 is kept.
func (g GenerationConfig) TemperatureOrDefault() float64 {
	if g.Temperature != nil {
		return *g.Temperature
	}
	return DefaultTemperature
}

// RetrievalConfig holds ranking and gating settings.
type RetrievalConfig struct {
	TopK                int      `yaml:"top_k"`
	SimilarityThreshold *float64 `yaml:"similarity_threshold"`
}

// ThresholdOrDefault returns the relevance gate; an explicit 0 is kept.
func (r RetrievalConfig) ThresholdOrDefault() float64 {
	if r.SimilarityThreshold != nil {
		return *r.SimilarityThreshold
	}
	return DefaultSimilarityThreshold
}

// PromptConfig holds persona, directives and style examples.
type PromptConfig struct {
	Persona        []string           `yaml:"persona"`
	ContextHeading string             `yaml:"context_heading"`
	Directives     []models.Directive `yaml:"directives"`
	Examples       []models.Example   `yaml:"examples"`
	ExamplesPath   string             `yaml:"examples_path"`
}

// GuardConfig extends the refusal patterns.
type GuardConfig struct {
	ExtraPatterns []string `yaml:"extra_patterns"`
}

// PipelineConfig holds pipeline behaviour switches.
type PipelineConfig struct {
	FailClosedOnEmbeddingError bool `yaml:"fail_closed_on_embedding_error"`
}

// JournalConfig controls the answer journal.
type JournalConfig struct {
	Enabled      *bool  `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// EnabledOrDefault returns whether to journal answers; defaults to true when unset.
func (j *JournalConfig) EnabledOrDefault() bool {
	if j.Enabled != nil {
		return *j.Enabled
	}
	return true
}

// Load reads and parses the config file at path, applies defaults and
// environment overrides, expands paths and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := finish(&cfg, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault is like Load but returns the defaults when path does not exist.
// Relative default paths are resolved against the current directory.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg = &Config{}
	if err := finish(cfg, cwd); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config, configDir string) error {
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return err
	}
	cfg.Index.Path = expandPath(cfg.Index.Path, configDir)
	cfg.Journal.DatabasePath = expandPath(cfg.Journal.DatabasePath, configDir)
	if cfg.Prompt.ExamplesPath != "" {
		cfg.Prompt.ExamplesPath = expandPath(cfg.Prompt.ExamplesPath, configDir)
		examples, err := LoadExamples(cfg.Prompt.ExamplesPath)
		if err != nil {
			return err
		}
		cfg.Prompt.Examples = append(cfg.Prompt.Examples, examples...)
	}
	return cfg.Validate()
}

// LoadExamples reads a YAML list of {question, answer} pairs.
func LoadExamples(path string) ([]models.Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read examples: %w", err)
	}
	var examples []models.Example
	if err := yaml.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("failed to parse examples: %w", err)
	}
	return examples, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "~/" are relative to the
// home directory; any other relative path is relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
		return path
	}
	return filepath.Join(configDir, path)
}

func lookupKey(env string) string {
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}
