// Package pattern applies context-gated textual corrections for mistakes the
// alignment stage cannot see, typically proper nouns the recogniser turned
// into common words.
//
// Alignment fixes words by comparing against a reference; a pattern fixes
// words by recognising a known mishearing. Because the same letters can be a
// genuine word elsewhere in the song ("janela", window, is a real Portuguese
// word), every pattern can demand nearby context before it fires.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/karaokeforge/lyrsync/internal/reconcile"
)

// defaultContextWindow is the number of runes inspected on each side of a
// match when a pattern declares context requirements.
const defaultContextWindow = 50

// defaultConfidenceThreshold gates which patterns may fire at all.
const defaultConfidenceThreshold = 0.7

// Pattern is one correction rule. Match is a literal phrase unless Regex is
// set, in which case it is compiled case-insensitively at construction time.
type Pattern struct {
	// ID names the pattern in correction records. Defaults to Match.
	ID string `yaml:"id"`

	// Match is the misheard phrase, literal or regular expression.
	Match string `yaml:"match"`

	// Replacement is substituted verbatim for the matched text.
	Replacement string `yaml:"replacement"`

	// ContextBefore, when non-empty, must occur (case-insensitively) within
	// ContextWindow runes before the match for the pattern to fire.
	ContextBefore string `yaml:"context_before"`

	// ContextAfter is the same requirement on the trailing side.
	ContextAfter string `yaml:"context_after"`

	// ContextWindow overrides the per-side window size in runes.
	ContextWindow int `yaml:"context_window"`

	// Confidence is in [0, 1]; patterns below the corrector's threshold are
	// skipped.
	Confidence float64 `yaml:"confidence"`

	// Regex marks Match as a regular expression.
	Regex bool `yaml:"regex"`
}

type compiledPattern struct {
	Pattern
	re *regexp.Regexp // nil for literal patterns
}

// Option configures a [Corrector].
type Option func(*Corrector)

// WithConfidenceThreshold sets the minimum pattern confidence. Default: 0.7.
func WithConfidenceThreshold(v float64) Option {
	return func(c *Corrector) {
		c.threshold = v
	}
}

// WithContextCheck toggles context gating. Disabling it makes every pattern
// fire wherever its text matches; useful in tests, dangerous on real lyrics.
func WithContextCheck(enabled bool) Option {
	return func(c *Corrector) {
		c.contextCheck = enabled
	}
}

// Corrector applies an ordered pattern list to text. It is read-only after
// construction and safe for concurrent use.
type Corrector struct {
	patterns     []compiledPattern
	threshold    float64
	contextCheck bool
}

// NewCorrector validates and compiles the given patterns. Regular expressions
// that do not compile and confidences outside [0, 1] are construction errors,
// not silent skips.
func NewCorrector(patterns []Pattern, opts ...Option) (*Corrector, error) {
	c := &Corrector{
		threshold:    defaultConfidenceThreshold,
		contextCheck: true,
	}
	for _, o := range opts {
		o(c)
	}
	if c.threshold < 0 || c.threshold > 1 {
		return nil, fmt.Errorf("pattern: confidence threshold %g outside [0, 1]", c.threshold)
	}

	c.patterns = make([]compiledPattern, 0, len(patterns))
	for i, p := range patterns {
		if p.Match == "" {
			return nil, fmt.Errorf("pattern %d: empty match", i)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			return nil, fmt.Errorf("pattern %q: confidence %g outside [0, 1]", p.Match, p.Confidence)
		}
		if p.ID == "" {
			p.ID = p.Match
		}
		if p.ContextWindow <= 0 {
			p.ContextWindow = defaultContextWindow
		}
		cp := compiledPattern{Pattern: p}
		if p.Regex {
			re, err := regexp.Compile("(?i)" + p.Match)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", p.ID, err)
			}
			cp.re = re
		}
		c.patterns = append(c.patterns, cp)
	}
	return c, nil
}

// Apply runs every eligible pattern over text in declaration order and
// returns the corrected text together with one record per applied
// substitution. Record indices are byte offsets into the text as it stood
// when that substitution was made.
func (c *Corrector) Apply(text string) (string, []reconcile.Record) {
	records := []reconcile.Record{}
	for _, p := range c.patterns {
		if p.Confidence < c.threshold {
			continue
		}
		if p.re != nil {
			text = c.applyRegex(text, p, &records)
		} else {
			text = c.applyLiteral(text, p, &records)
		}
	}
	return text, records
}

// applyRegex substitutes matches back to front so earlier byte offsets stay
// valid while splicing.
func (c *Corrector) applyRegex(text string, p compiledPattern, records *[]reconcile.Record) string {
	matches := p.re.FindAllStringIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start, end := matches[i][0], matches[i][1]
		if !c.contextOK(text, start, end, p) {
			continue
		}
		*records = append(*records, reconcile.Record{
			Original:   text[start:end],
			Corrected:  p.Replacement,
			Index:      start,
			Confidence: p.Confidence,
			Source:     p.ID,
		})
		text = text[:start] + p.Replacement + text[end:]
	}
	return text
}

// applyLiteral scans with a cursor, matching case-insensitively. On a context
// failure the cursor advances one byte so overlapping later occurrences are
// still considered.
func (c *Corrector) applyLiteral(text string, p compiledPattern, records *[]reconcile.Record) string {
	needle := strings.ToLower(p.Match)
	pos := 0
	for {
		rel := strings.Index(strings.ToLower(text[pos:]), needle)
		if rel < 0 {
			return text
		}
		start := pos + rel
		end := start + len(needle)
		if !c.contextOK(text, start, end, p) {
			pos = start + 1
			continue
		}
		*records = append(*records, reconcile.Record{
			Original:   text[start:end],
			Corrected:  p.Replacement,
			Index:      start,
			Confidence: p.Confidence,
			Source:     p.ID,
		})
		text = text[:start] + p.Replacement + text[end:]
		pos = start + len(p.Replacement)
	}
}

// contextOK checks the pattern's context requirements around [start, end).
func (c *Corrector) contextOK(text string, start, end int, p compiledPattern) bool {
	if !c.contextCheck {
		return true
	}
	if p.ContextBefore != "" {
		window := lastRunes(text[:start], p.ContextWindow)
		if !strings.Contains(strings.ToLower(window), strings.ToLower(p.ContextBefore)) {
			return false
		}
	}
	if p.ContextAfter != "" {
		window := firstRunes(text[end:], p.ContextWindow)
		if !strings.Contains(strings.ToLower(window), strings.ToLower(p.ContextAfter)) {
			return false
		}
	}
	return true
}

// lastRunes returns the suffix of s holding at most n runes.
func lastRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := len(s)
	for ; n > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

// firstRunes returns the prefix of s holding at most n runes.
func firstRunes(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
