// Package prompt renders retrieved excerpts, examples and directives into a generation prompt
// that confines the model to the supplied context.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/guard"
	"github.com/hyperjump/kotae/internal/models"
)

// Section markers. Interpolated values never start a line with one of these.
const (
	markerSection = "---"
	markerExcerpt = "<<"
	markerExample = "# Example"
)

// DefaultPersona is the persona used when none is configured.
var DefaultPersona = []string{
	"You are a helpful teaching assistant answering questions about a textbook.",
}

// DefaultContextHeading names the excerpt section.
const DefaultContextHeading = "TEXTBOOK EXCERPTS"

// Input is the named-field form of a Build call.
type Input struct {
	Question string                `json:"question" yaml:"question"`
	Contexts []models.ScoredChunk `json:"contexts" yaml:"contexts"`
	Examples []models.Example     `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// Builder renders prompts. The zero value is not usable; use NewBuilder.
// A Builder is immutable after construction and safe for concurrent use.
type Builder struct {
	persona        []string
	contextHeading string
	directives     []models.Directive
}

// Option configures a Builder.
type Option func(*Builder)

// WithPersona replaces the persona lines opening the prompt. Empty input keeps the default.
func WithPersona(lines ...string) Option {
	return func(b *Builder) {
		if len(lines) > 0 {
			b.persona = append([]string(nil), lines...)
		}
	}
}

// WithContextHeading sets the excerpt section heading. The lowercased heading also
// names the material in the answer-only rule.
func WithContextHeading(heading string) Option {
	return func(b *Builder) {
		if strings.TrimSpace(heading) != "" {
			b.contextHeading = heading
		}
	}
}

// WithDirectives appends style or requirement directives rendered in a REQUIREMENTS section.
func WithDirectives(directives ...models.Directive) Option {
	return func(b *Builder) { b.directives = append(b.directives, directives...) }
}

// NewBuilder returns a Builder with the default persona and context heading.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		persona:        DefaultPersona,
		contextHeading: DefaultContextHeading,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders a prompt from positional arguments. It is equivalent to
// BuildInput(Input{Question: question, Contexts: contexts, Examples: examples}).
func (b *Builder) Build(question string, contexts []models.ScoredChunk, examples ...models.Example) string {
	return b.BuildInput(Input{Question: question, Contexts: contexts, Examples: examples})
}

// BuildInput renders a prompt. The examples and requirements sections are omitted when empty.
func (b *Builder) BuildInput(in Input) string {
	lines := make([]string, 0, 16+len(b.persona))
	for _, p := range b.persona {
		lines = append(lines, escape(p))
	}
	lines = append(lines,
		"You must answer **only** using the provided " + strings.ToLower(escapeInline(b.contextHeading)) + ".",
		"If the answer is not clearly supported by the excerpts, reply exactly:",
		`"` + guard.CanonicalRefusal + `"`,
		"",
		"Be concise, factual, and do not invent information.",
		"",
		section(b.contextHeading),
		renderContexts(in.Contexts),
	)
	if len(in.Examples) > 0 {
		lines = append(lines, "", section("EXAMPLES"), renderExamples(in.Examples))
	}
	lines = append(lines, "", section("QUESTION"), escape(in.Question))
	if len(b.directives) > 0 {
		lines = append(lines, "", section("REQUIREMENTS"), renderDirectives(b.directives))
	}
	lines = append(lines, "", section("ANSWER"))
	return strings.Join(lines, "\n")
}

var defaultBuilder = NewBuilder()

// Build renders a prompt with the default builder.
func Build(question string, contexts []models.ScoredChunk, examples ...models.Example) string {
	return defaultBuilder.Build(question, contexts, examples...)
}

// BuildInput renders a prompt with the default builder.
func BuildInput(in Input) string {
	return defaultBuilder.BuildInput(in)
}

func section(name string) string {
	return markerSection + " " + strings.ToUpper(escapeInline(name)) + " " + markerSection
}

func renderContexts(contexts []models.ScoredChunk) string {
	parts := make([]string, len(contexts))
	for i, c := range contexts {
		parts[i] = fmt.Sprintf("%sexcerpt %d (score=%.2f)>>\n%s", markerExcerpt, i+1, c.Score, escape(c.Text))
	}
	return strings.Join(parts, "\n\n")
}

func renderExamples(examples []models.Example) string {
	parts := make([]string, len(examples))
	for i, ex := range examples {
		parts[i] = fmt.Sprintf("%s %d\nQ: %s\nA: %s", markerExample, i+1, escape(ex.Question), escape(ex.Answer))
	}
	return strings.Join(parts, "\n\n")
}

func renderDirectives(directives []models.Directive) string {
	parts := make([]string, len(directives))
	for i, d := range directives {
		label := escapeInline(d.Label)
		if label == "" {
			parts[i] = "- " + escapeInline(d.Text)
			continue
		}
		parts[i] = "- " + label + ": " + escapeInline(d.Text)
	}
	return strings.Join(parts, "\n")
}

// escape normalizes line endings, trims the value and backslash-prefixes any line
// that would otherwise read as a section, excerpt or example marker.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if startsWithMarker(line) {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

// escapeInline collapses a value onto a single line.
func escapeInline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func startsWithMarker(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, markerSection) ||
		strings.HasPrefix(trimmed, markerExcerpt) ||
		strings.HasPrefix(trimmed, markerExample) ||
		strings.HasPrefix(trimmed, `\`)
}
