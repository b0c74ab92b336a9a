package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/generation"
	"github.com/hyperjump/kotae/internal/guard"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/prompt"
	"github.com/hyperjump/kotae/internal/storage"
	"go.uber.org/zap"
)

// Components holds the wired application.
type Components struct {
	Config   *config.Config
	Index    *index.Store
	Journal  *storage.SQLiteJournal
	Pipeline *pipeline.Pipeline
}

// Close releases the journal.
func (c *Components) Close() error {
	if c.Journal != nil {
		return c.Journal.Close()
	}
	return nil
}

// journal returns the journal as an interface, nil when disabled.
func (c *Components) journal() storage.Journal {
	if c.Journal == nil {
		return nil
	}
	return c.Journal
}

// loadConfig loads config from path. With no path it uses config.yaml in the
// current directory when present and the defaults otherwise.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	fallback := filepath.Join(cwd, "config.yaml")
	cfg, err := config.LoadOrDefault(fallback)
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(fallback); statErr != nil {
		fallback = ""
	}
	return cfg, fallback, nil
}

// newBuilder builds the prompt builder from the prompt settings.
func newBuilder(cfg *config.Config) *prompt.Builder {
	return prompt.NewBuilder(
		prompt.WithPersona(cfg.Prompt.Persona...),
		prompt.WithContextHeading(cfg.Prompt.ContextHeading),
		prompt.WithDirectives(cfg.Prompt.Directives...),
	)
}

// newGuard builds the output guard with any configured extra patterns.
func newGuard(cfg *config.Config) (*guard.Guard, error) {
	if len(cfg.Guard.ExtraPatterns) == 0 {
		return guard.New(), nil
	}
	pred, err := guard.PatternPredicate(cfg.Guard.ExtraPatterns...)
	if err != nil {
		return nil, fmt.Errorf("guard patterns: %w", err)
	}
	return guard.New(pred), nil
}

// pipelineConfig maps the file configuration onto the pipeline's.
func pipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		GenerationModel:     cfg.Generation.Model,
		TopK:                cfg.Retrieval.TopK,
		SimilarityThreshold: cfg.Retrieval.ThresholdOrDefault(),
		Params: generation.Params{
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: cfg.Generation.TemperatureOrDefault(),
			Stop:        cfg.Generation.Stop,
		},
		Examples:                   cfg.Prompt.Examples,
		FailClosedOnEmbeddingError: cfg.Pipeline.FailClosedOnEmbeddingError,
	}
}

// initializeComponents opens the index and journal and wires the pipeline.
// withJournal is false for commands that only read.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withJournal bool, opts ...pipeline.Option) (*Components, error) {
	store, err := index.Open(cfg.Index.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	emb, err := embedding.New(embedding.Options{
		Provider: cfg.Embedding.Provider,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey(),
		Timeout:  cfg.Embedding.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}
	gen, err := generation.New(generation.Options{
		Provider: cfg.Generation.Provider,
		BaseURL:  cfg.Generation.BaseURL,
		APIKey:   cfg.Generation.APIKey(),
		Timeout:  cfg.Generation.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("generation client: %w", err)
	}
	g, err := newGuard(cfg)
	if err != nil {
		return nil, err
	}

	c := &Components{Config: cfg, Index: store}
	if withJournal && cfg.Journal.EnabledOrDefault() {
		j, err := storage.NewSQLiteJournal(cfg.Journal.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		c.Journal = j
		opts = append(opts, pipeline.WithNotifier(j))
	}

	base := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithBuilder(newBuilder(cfg)),
		pipeline.WithGuard(g),
		pipeline.WithNotifier(pipeline.LogNotifier(logger)),
	}
	c.Pipeline = pipeline.New(store, emb, gen, pipelineConfig(cfg), append(base, opts...)...)
	return c, nil
}
