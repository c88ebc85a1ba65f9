// Package phonetic implements the spelling-similarity heuristic used for
// fuzzy equivalence decisions during transcript reconciliation.
//
// This is explicitly an approximation, not a linguistic phonetic algorithm:
// words are folded to lowercase base Latin letters via a fixed substitution
// table and compared with a common-subsequence similarity ratio. The result
// is a bounded distance in [0, 1] where 0 means identical after folding.
// That is good enough to decide that "janela" and "Janelle" are plausibly the
// same sung word while "casa" and "Janelle" are not — no IPA transcription is
// attempted.
//
// For candidate selection against a hotword list, [Matcher.BestMatch] adds a
// Double Metaphone prefilter: candidates that share a phonetic code with the
// input are preferred over candidates that merely look similar, which keeps
// short accidental near-matches out of the running.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// DefaultThreshold is the recommended maximum distance for [Matcher.AreSimilar],
// i.e. at least 70% similarity. Validated against the reference lyric corpus.
const DefaultThreshold = 0.3

// FoldTable maps accented or language-specific runes to their base Latin
// letter. Tables are fixed at construction; swap in a different table to tune
// the matcher for another language.
type FoldTable map[rune]rune

// DefaultFoldTable returns the fold table for Portuguese-language lyrics,
// covering the accented vowels and cedilla that Brazilian song texts use.
func DefaultFoldTable() FoldTable {
	return FoldTable{
		'á': 'a', 'à': 'a', 'ã': 'a', 'â': 'a', 'ä': 'a',
		'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
		'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
		'ó': 'o', 'ò': 'o', 'õ': 'o', 'ô': 'o', 'ö': 'o',
		'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
		'ç': 'c',
		'ñ': 'n',
	}
}

// Fold lowercases s and applies the substitution table.
func (t FoldTable) Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if sub, ok := t[r]; ok {
			r = sub
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithFoldTable replaces the default Portuguese fold table.
func WithFoldTable(t FoldTable) Option {
	return func(m *Matcher) {
		m.fold = t
	}
}

// WithThreshold sets the default maximum distance for [Matcher.AreSimilar].
// Default: 0.3.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// Matcher computes bounded phonetic-style distances between words or phrases.
// A Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	fold      FoldTable
	threshold float64
}

// New returns a [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		fold:      DefaultFoldTable(),
		threshold: DefaultThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Fold exposes the matcher's normalisation so that callers (tokeniser,
// pattern table) share one comparison form.
func (m *Matcher) Fold(s string) string {
	return m.fold.Fold(s)
}

// Distance returns 1 - similarity ratio of the folded forms of a and b.
// The result is in [0, 1]; 0 means identical after folding. The similarity
// ratio is 2·M/(len(a)+len(b)) where M is the length of the longest common
// subsequence of runes.
func (m *Matcher) Distance(a, b string) float64 {
	fa := []rune(m.fold.Fold(a))
	fb := []rune(m.fold.Fold(b))
	if len(fa) == 0 && len(fb) == 0 {
		return 0
	}
	if len(fa) == 0 || len(fb) == 0 {
		return 1
	}
	lcs := lcsLength(fa, fb)
	ratio := 2 * float64(lcs) / float64(len(fa)+len(fb))
	return 1 - ratio
}

// AreSimilar reports whether Distance(a, b) ≤ threshold. A threshold ≤ 0
// falls back to the matcher's configured default.
func (m *Matcher) AreSimilar(a, b string, threshold float64) bool {
	if threshold <= 0 {
		threshold = m.threshold
	}
	return m.Distance(a, b) <= threshold
}

// BestMatch selects the candidate most similar to word, or reports no match.
//
// Selection runs in two stages, mirroring how a human would shortlist:
//
//  1. Candidates sharing at least one Double Metaphone code with word are
//     ranked by Distance; the closest one within maxDistance wins.
//  2. When no phonetic candidate qualifies, all candidates are ranked by
//     Distance against a stricter ceiling (half of maxDistance), so a purely
//     orthographic match must be considerably closer to be accepted.
//
// Ties are broken by candidate order, making the result reproducible for a
// fixed candidate list. maxDistance ≤ 0 falls back to the configured
// threshold.
func (m *Matcher) BestMatch(word string, candidates []string, maxDistance float64) (best string, distance float64, ok bool) {
	if maxDistance <= 0 {
		maxDistance = m.threshold
	}
	word = strings.TrimSpace(word)
	if word == "" || len(candidates) == 0 {
		return "", 0, false
	}

	wordCodes := metaphoneCodes(m.fold.Fold(word))

	bestDist := maxDistance
	found := false
	for _, cand := range candidates {
		if strings.TrimSpace(cand) == "" {
			continue
		}
		if !codesOverlap(wordCodes, metaphoneCodes(m.fold.Fold(cand))) {
			continue
		}
		if d := m.Distance(word, cand); d <= bestDist && (!found || d < bestDist) {
			best, bestDist, found = cand, d, true
		}
	}
	if found {
		return best, bestDist, true
	}

	// Fallback: orthographic similarity only, stricter ceiling.
	bestDist = maxDistance / 2
	for _, cand := range candidates {
		if strings.TrimSpace(cand) == "" {
			continue
		}
		if d := m.Distance(word, cand); d <= bestDist && (!found || d < bestDist) {
			best, bestDist, found = cand, d, true
		}
	}
	if found {
		return best, bestDist, true
	}
	return "", 0, false
}

// metaphoneCodes returns the union of Double Metaphone codes for every
// whitespace-separated token of s. Empty codes are excluded.
func metaphoneCodes(s string) map[string]struct{} {
	codes := make(map[string]struct{}, 4)
	for _, tok := range strings.Fields(s) {
		p, sec := matchr.DoubleMetaphone(tok)
		if p != "" {
			codes[p] = struct{}{}
		}
		if sec != "" {
			codes[sec] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// lcsLength computes the longest-common-subsequence length with a two-row DP.
func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
