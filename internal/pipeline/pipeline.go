// Package pipeline answers questions from a pre-embedded index, refusing whenever
// the index cannot support a trustworthy answer.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/generation"
	"github.com/hyperjump/kotae/internal/guard"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/prompt"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// IndexSource hands out a consistent index snapshot per question.
type IndexSource interface {
	Snapshot(ctx context.Context) (*models.Index, error)
}

// Defaults used when Config fields are zero.
const (
	DefaultTopK      = 3
	DefaultThreshold = 0.20
	DefaultModel     = "llama3.2:3b"
)

// Config holds the per-pipeline settings.
type Config struct {
	GenerationModel     string
	TopK                int
	SimilarityThreshold float64
	Params              generation.Params
	Examples            []models.Example
	// FailClosedOnEmbeddingError turns embedding failures into refusals instead of errors.
	FailClosedOnEmbeddingError bool
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		GenerationModel:     DefaultModel,
		TopK:                DefaultTopK,
		SimilarityThreshold: DefaultThreshold,
		Params:              generation.DefaultParams(),
	}
}

// Pipeline composes retrieval, gating, prompting, generation and sanitizing.
// It holds no per-question state and is safe for concurrent use.
type Pipeline struct {
	source    IndexSource
	embedder  embedding.Embedder
	generator generation.Generator
	builder   *prompt.Builder
	guard     *guard.Guard
	cfg       Config
	notifiers []Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithNotifier subscribes n to answered questions.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.notifiers = append(p.notifiers, n)
		}
	}
}

// WithBuilder replaces the default prompt builder.
func WithBuilder(b *prompt.Builder) Option {
	return func(p *Pipeline) {
		if b != nil {
			p.builder = b
		}
	}
}

// WithGuard replaces the default output guard.
func WithGuard(g *guard.Guard) Option {
	return func(p *Pipeline) {
		if g != nil {
			p.guard = g
		}
	}
}

// New returns a pipeline. Zero Config fields take the package defaults;
// a zero Params (no token budget) takes generation.DefaultParams.
func New(source IndexSource, emb embedding.Embedder, gen generation.Generator, cfg Config, opts ...Option) *Pipeline {
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = DefaultModel
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Params.MaxTokens <= 0 {
		cfg.Params = generation.DefaultParams()
	}
	p := &Pipeline{
		source:    source,
		embedder:  emb,
		generator: gen,
		builder:   prompt.NewBuilder(),
		guard:     guard.New(),
		cfg:       cfg,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Answer answers question. Every refusal path yields guard.CanonicalRefusal with a nil
// error; only a failed embedding call is returned as an error.
func (p *Pipeline) Answer(ctx context.Context, question string) (models.Answer, error) {
	res, err := p.Run(ctx, question)
	if err != nil {
		return models.Answer{}, err
	}
	return res.Answer, nil
}

// Run answers question and reports how the answer was reached.
func (p *Pipeline) Run(ctx context.Context, question string) (*Result, error) {
	start := p.now()
	res := &Result{State: StateInit}

	idx, err := p.source.Snapshot(ctx)
	if err != nil {
		p.logger.Warn("index unavailable", zap.Error(err))
		return p.refuse(res, ReasonIndexUnavailable), nil
	}
	res.State = StateIndexLoaded
	if idx.Empty() {
		return p.refuse(res, ReasonEmptyIndex), nil
	}
	res.EmbModel = idx.EmbModel
	res.IndexFingerprint = idx.Fingerprint

	qvec, err := p.embedder.Embed(ctx, question, idx.EmbModel)
	if err != nil {
		if p.cfg.FailClosedOnEmbeddingError {
			p.logger.Warn("embedding failed", zap.String("model", idx.EmbModel), zap.Error(err))
			return p.refuse(res, ReasonEmbeddingFailed), nil
		}
		return nil, fmt.Errorf("embed question: %w", err)
	}
	res.State = StateEmbedded

	contexts := vector.Rank(idx, qvec, p.cfg.TopK, p.cfg.SimilarityThreshold)
	res.State = StateRetrieved
	res.Contexts = contexts
	if len(contexts) > 0 {
		res.TopScore = contexts[0].Score
	}

	if len(contexts) == 0 || contexts[0].Score < p.cfg.SimilarityThreshold {
		p.logger.Debug("top score below threshold",
			zap.Float64("top_score", res.TopScore),
			zap.Float64("threshold", p.cfg.SimilarityThreshold),
		)
		return p.refuse(res, ReasonInsufficientRelevance), nil
	}
	res.State = StateGated

	text := p.builder.Build(question, contexts, p.cfg.Examples...)
	res.State = StatePrompted

	raw, err := p.generator.Generate(ctx, text, p.cfg.GenerationModel, p.cfg.Params)
	if err != nil {
		p.logger.Warn("generation failed", zap.String("model", p.cfg.GenerationModel), zap.Error(err))
		return p.refuse(res, ReasonGenerationFailed), nil
	}
	res.State = StateGenerated

	safe := p.guard.Sanitize(raw)
	res.State = StateSanitized
	if safe == guard.CanonicalRefusal {
		reason := ReasonPolicyViolation
		if strings.TrimSpace(raw) == guard.CanonicalRefusal {
			reason = ReasonModelRefused
		}
		return p.refuse(res, reason), nil
	}

	res.State = StateDone
	res.Answer = models.Answer{Text: safe}
	p.notify(ctx, question, res, p.now().Sub(start))
	return res, nil
}

func (p *Pipeline) refuse(res *Result, reason Reason) *Result {
	p.logger.Info("refused", zap.String("reason", string(reason)), zap.String("state", string(res.State)))
	res.Refused = true
	res.Reason = reason
	res.State = StateRefused
	res.Answer = models.Answer{Text: guard.CanonicalRefusal}
	return res
}

func (p *Pipeline) notify(ctx context.Context, question string, res *Result, elapsed time.Duration) {
	if len(p.notifiers) == 0 {
		return
	}
	ev := models.AnswerEvent{
		ID:               uuid.NewString(),
		Question:         question,
		Answer:           res.Answer.Text,
		TopScore:         res.TopScore,
		Contexts:         len(res.Contexts),
		EmbModel:         res.EmbModel,
		GenModel:         p.cfg.GenerationModel,
		IndexFingerprint: res.IndexFingerprint,
		Duration:         elapsed,
		CreatedAt:        p.now(),
	}
	res.EventID = ev.ID
	for _, n := range p.notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			p.logger.Warn("notifier failed", zap.String("id", ev.ID), zap.Error(err))
		}
	}
}
