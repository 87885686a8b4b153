// Package topic extracts normalized topic tokens (hashtags and keywords) from post text.
package topic

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinLength is the shortest keyword kept, in runes.
const DefaultMinLength = 4

// A hashtag starts at the beginning of the text or after a non-word character,
// so "issue#1234" carries no tag. Marks keep scripts like Devanagari whole.
var (
	hashtagPattern = regexp.MustCompile(`(?:^|[^\p{L}\p{M}\p{N}_])#([\p{L}\p{M}\p{N}_]+)`)
	urlPattern     = regexp.MustCompile(`(?i)\bhttps?://\S+`)
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{M}\p{N}_.]+(@[\p{L}\p{M}\p{N}_.-]+)?`)
)

// Set is a deduplicated collection of topic tokens.
type Set map[string]struct{}

// NewSet returns a Set holding the given tokens.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether tok is in the set.
func (s Set) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Sorted returns the tokens in lexicographic order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Extractor turns post text into topic tokens.
// The zero value is not usable; construct with New.
type Extractor struct {
	stopwords map[string]bool
	minLength int
}

// Option configures an Extractor.
type Option func(*config)

type config struct {
	stopwords []string
	minLength int
}

// WithMinLength sets the minimum keyword length in runes.
func WithMinLength(n int) Option {
	return func(c *config) { c.minLength = n }
}

// WithStopwords replaces the default stopword list.
func WithStopwords(words []string) Option {
	return func(c *config) { c.stopwords = words }
}

// New creates an Extractor. Without options it uses DefaultMinLength and DefaultStopwords.
func New(opts ...Option) *Extractor {
	cfg := &config{minLength: DefaultMinLength, stopwords: DefaultStopwords}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.minLength < 1 {
		cfg.minLength = 1
	}

	stop := make(map[string]bool, len(cfg.stopwords))
	lower := cases.Lower(language.Und)
	for _, w := range cfg.stopwords {
		stop[lower.String(norm.NFC.String(w))] = true
	}
	return &Extractor{stopwords: stop, minLength: cfg.minLength}
}

// Extract returns the union of hashtag and keyword tokens found in text, plus any
// hashtag names supplied separately by the server. Hashtags bypass the length and
// stopword filters; keywords do not.
func (e *Extractor) Extract(text string, tags ...string) Set {
	lower := cases.Lower(language.Und)
	text = prepare(text)

	set := e.hashtags(lower, text, tags)

	body := hashtagPattern.ReplaceAllString(text, " ")
	body = mentionPattern.ReplaceAllString(body, " ")

	for _, w := range strings.FieldsFunc(body, isSeparator) {
		w = lower.String(w)
		if utf8.RuneCountInString(w) < e.minLength || e.stopwords[w] {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Hashtags returns only the hashtag tokens of text and tags.
func (e *Extractor) Hashtags(text string, tags ...string) Set {
	return e.hashtags(cases.Lower(language.Und), prepare(text), tags)
}

// prepare normalizes text and removes URLs so fragments like "/#anchor" never
// read as hashtags.
func prepare(text string) string {
	return urlPattern.ReplaceAllString(norm.NFC.String(text), " ")
}

// A cases.Caser is stateful, so callers pass their own.
func (*Extractor) hashtags(lower cases.Caser, text string, tags []string) Set {
	set := make(Set)
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		set[lower.String(m[1])] = struct{}{}
	}
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		set[lower.String(norm.NFC.String(t))] = struct{}{}
	}
	return set
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsNumber(r)
}
