// Package cli implements the kotae command line and its output formatting.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates s as an output format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

const excerptPreview = 160

type styles struct {
	answer  lipgloss.Style
	refusal lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{answer: plain, refusal: plain, label: plain, muted: plain}
	}
	return styles{
		answer:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}),
		refusal: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}),
		label:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}),
	}
}

// TextOptions controls text rendering.
type TextOptions struct {
	ShowSources bool
	Color       bool
}

type sourceView struct {
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

type answerView struct {
	Answer   string          `json:"answer"`
	Refused  bool            `json:"refused"`
	Reason   pipeline.Reason `json:"reason,omitempty"`
	TopScore float64         `json:"top_score"`
	EventID  string          `json:"event_id,omitempty"`
	Sources  []sourceView    `json:"sources,omitempty"`
}

// WriteAnswer writes res to w. JSON output never carries embeddings.
func WriteAnswer(w io.Writer, res *pipeline.Result, format OutputFormat, opts TextOptions) error {
	if format == OutputJSON {
		view := answerView{
			Answer:   res.Answer.Text,
			Refused:  res.Refused,
			Reason:   res.Reason,
			TopScore: res.TopScore,
			EventID:  res.EventID,
		}
		if opts.ShowSources {
			for _, c := range res.Contexts {
				view.Sources = append(view.Sources, sourceView{Position: c.Position, Score: c.Score, Text: c.Text})
			}
		}
		return encodeJSON(w, view)
	}

	st := newStyles(opts.Color)
	if res.Refused {
		fmt.Fprintln(w, st.refusal.Render(res.Answer.Text))
	} else {
		fmt.Fprintln(w, st.answer.Render(res.Answer.Text))
	}
	if !opts.ShowSources {
		return nil
	}
	fmt.Fprintln(w)
	if res.Refused {
		fmt.Fprintln(w, st.muted.Render(fmt.Sprintf("refused: %s (top score %.4f)", res.Reason, res.TopScore)))
	}
	if len(res.Contexts) == 0 {
		fmt.Fprintln(w, st.muted.Render("no sources"))
		return nil
	}
	fmt.Fprintln(w, st.label.Render("Sources"))
	for i, c := range res.Contexts {
		fmt.Fprintf(w, "%s %s\n", st.label.Render(fmt.Sprintf("[%d]", i+1)),
			st.muted.Render(fmt.Sprintf("chunk %d, score %.4f", c.Position, c.Score)))
		fmt.Fprintf(w, "    %s\n", utils.Truncate(utils.OneLine(c.Text), excerptPreview))
	}
	return nil
}

// WriteHistory writes journaled answers to w, newest first as given.
func WriteHistory(w io.Writer, events []*models.AnswerEvent, format OutputFormat, color bool) error {
	if format == OutputJSON {
		if events == nil {
			events = []*models.AnswerEvent{}
		}
		return encodeJSON(w, events)
	}
	st := newStyles(color)
	if len(events) == 0 {
		fmt.Fprintln(w, st.muted.Render("no answers recorded"))
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(w, "%s %s\n", st.label.Render(ev.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			st.muted.Render(fmt.Sprintf("%s score=%.4f %s", ev.ID, ev.TopScore, ev.Duration.Round(time.Millisecond))))
		fmt.Fprintf(w, "  Q: %s\n", utils.Truncate(utils.OneLine(ev.Question), excerptPreview))
		fmt.Fprintf(w, "  A: %s\n", st.answer.Render(utils.Truncate(utils.OneLine(ev.Answer), excerptPreview)))
	}
	return nil
}

// StatusReport is what the status command prints.
type StatusReport struct {
	Index        index.Stats `json:"index"`
	IndexBytes   int64       `json:"index_bytes"`
	Journal      string      `json:"journal,omitempty"`
	Answers      int64       `json:"answers"`
	JournalBytes int64       `json:"journal_bytes,omitempty"`
}

// WriteStatus writes r to w.
func WriteStatus(w io.Writer, r StatusReport, format OutputFormat, color bool) error {
	if format == OutputJSON {
		return encodeJSON(w, r)
	}
	st := newStyles(color)
	row := func(k, v string) {
		fmt.Fprintf(w, "%s %s\n", st.label.Render(fmt.Sprintf("%-12s", k)), v)
	}
	row("index", r.Index.Path)
	row("emb model", r.Index.EmbModel)
	row("chunks", fmt.Sprintf("%d", r.Index.Chunks))
	row("dimension", fmt.Sprintf("%d", r.Index.Dimension))
	row("fingerprint", r.Index.Fingerprint)
	row("index size", fmt.Sprintf("%d bytes", r.IndexBytes))
	if r.Journal != "" {
		row("journal", r.Journal)
		row("answers", fmt.Sprintf("%d", r.Answers))
		row("journal size", fmt.Sprintf("%d bytes", r.JournalBytes))
	}
	return nil
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
