// Package guard rewrites model output that breaks the context-only persona into the canonical refusal.
package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// CanonicalRefusal is the single literal returned on every refusal path.
const CanonicalRefusal = "this is beyond my scope."

// DefaultPatterns are the hedging openers that mark a model stepping out of persona.
// Matched case-insensitively at the start of the trimmed output.
var DefaultPatterns = []string{
	`as\s+an\s+ai`,
	`i\s+don['’]t\s+have`,
	`i['’]m\s+not\s+sure`,
}

// Predicate reports whether text should be treated as a refusal.
type Predicate func(text string) bool

var defaultPredicate = MustPatternPredicate(DefaultPatterns...)

// IsRefusalLike reports whether text opens with one of DefaultPatterns.
func IsRefusalLike(text string) bool {
	return defaultPredicate(text)
}

// PatternPredicate compiles exprs into a predicate that matches, case-insensitively,
// any expression anchored at the start of the whitespace-trimmed text.
func PatternPredicate(exprs ...string) (Predicate, error) {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(`(?i)^(?:` + expr + `)`)
		if err != nil {
			return nil, fmt.Errorf("invalid refusal pattern %q: %w", expr, err)
		}
		res = append(res, re)
	}
	return func(text string) bool {
		text = strings.TrimSpace(text)
		for _, re := range res {
			if re.MatchString(text) {
				return true
			}
		}
		return false
	}, nil
}

// MustPatternPredicate is like PatternPredicate but panics on an invalid expression.
func MustPatternPredicate(exprs ...string) Predicate {
	p, err := PatternPredicate(exprs...)
	if err != nil {
		panic(err)
	}
	return p
}

// Guard sanitizes raw model output.
type Guard struct {
	predicates []Predicate
}

// New returns a guard that applies IsRefusalLike plus any extra predicates.
func New(extra ...Predicate) *Guard {
	g := &Guard{predicates: []Predicate{IsRefusalLike}}
	for _, p := range extra {
		if p != nil {
			g.predicates = append(g.predicates, p)
		}
	}
	return g
}

// Refuses reports whether text is empty after trimming or matches any predicate.
func (g *Guard) Refuses(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	for _, p := range g.predicates {
		if p(text) {
			return true
		}
	}
	return false
}

// Sanitize trims raw and replaces it with CanonicalRefusal when Refuses reports true.
// The canonical refusal itself never matches, so Sanitize is idempotent.
func (g *Guard) Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	if text == CanonicalRefusal {
		return text
	}
	if g.Refuses(text) {
		return CanonicalRefusal
	}
	return text
}

var defaultGuard = New()

// Sanitize applies the default guard.
func Sanitize(raw string) string {
	return defaultGuard.Sanitize(raw)
}
