// Package prompt rewrites caller prompts so the multimodal tokenizer sees exactly
// one canonical marker per attached media item.
//
// Chat templates spell media placeholders in many ways. Normalize first maps
// every known spelling to the canonical marker, then, if media outnumbers
// markers, inserts the missing markers after the first user role prefix (or in
// front of the prompt when there is none). The placement is a heuristic: other
// role conventions fall back to prepending.
package prompt

import (
	"regexp"
	"strings"

	"llamabridge/internal/engine"
)

// Rule rewrites one placeholder spelling to the canonical marker. Exactly one
// of Literal or Pattern is set.
type Rule struct {
	Literal string
	Pattern *regexp.Regexp
}

func (r Rule) apply(text, marker string) string {
	if r.Pattern != nil {
		return r.Pattern.ReplaceAllLiteralString(text, marker)
	}
	if r.Literal == "" {
		return text
	}
	return strings.ReplaceAll(text, r.Literal, marker)
}

// DefaultRules are applied in order.
var DefaultRules = []Rule{
	{Literal: "<image>"},
	{Literal: "[IMG]"},
	{Literal: "<|image|>"},
	{Literal: "<img>"},
	{Literal: "<|img|>"},
	{Literal: "<audio>"},
	{Literal: "<|audio|>"},
	{Pattern: regexp.MustCompile(`<\|image_\d+\|>`)},
	{Pattern: regexp.MustCompile(`<\|audio_\d+\|>`)},
}

// DefaultRolePrefixes are tried in order when splicing missing markers.
var DefaultRolePrefixes = []string{"User:", "user:"}

// Normalizer holds the rule table and role prefixes.
type Normalizer struct {
	rules    []Rule
	prefixes []string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithRules appends extra rules after the defaults.
func WithRules(rules ...Rule) Option {
	return func(n *Normalizer) { n.rules = append(n.rules, rules...) }
}

// WithRolePrefixes replaces the role prefixes used for marker insertion.
func WithRolePrefixes(prefixes ...string) Option {
	return func(n *Normalizer) { n.prefixes = append([]string(nil), prefixes...) }
}

// New returns a Normalizer with the default rule table.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		rules:    append([]Rule(nil), DefaultRules...),
		prefixes: append([]string(nil), DefaultRolePrefixes...),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

var defaultNormalizer = New()

// Normalize uses the default rules. See Normalizer.Normalize.
func Normalize(text, marker string, mediaCount int) string {
	return defaultNormalizer.Normalize(text, marker, mediaCount)
}

// Normalize rewrites text for mediaCount attached items. An empty marker means
// the engine default.
func (n *Normalizer) Normalize(text, marker string, mediaCount int) string {
	if marker == "" {
		marker = engine.DefaultMarker
	}
	out := text
	for _, r := range n.rules {
		out = r.apply(out, marker)
	}
	if mediaCount <= 0 {
		return out
	}
	have := strings.Count(out, marker)
	if have >= mediaCount {
		return out
	}
	block := strings.TrimSuffix(strings.Repeat(marker+" ", mediaCount-have), " ")
	for _, p := range n.prefixes {
		if i := strings.Index(out, p); i >= 0 {
			return out[:i] + p + " " + block + " " + out[i+len(p):]
		}
	}
	return block + "\n" + out
}

// CountMarkers reports how many canonical markers text contains.
func CountMarkers(text, marker string) int {
	if marker == "" {
		marker = engine.DefaultMarker
	}
	return strings.Count(text, marker)
}
