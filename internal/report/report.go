// Package report summarises a reconciliation run: how many corrections were
// made, by which stage, and how far the transcript sat from the reference
// before and after.
package report

import (
	"sort"
	"strconv"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/karaokeforge/lyrsync/internal/align"
	"github.com/karaokeforge/lyrsync/internal/reconcile"
)

// Stats aggregates the correction records of one run.
type Stats struct {
	TotalCorrections  int            `json:"total_corrections"`
	AverageConfidence float64        `json:"average_confidence"`
	BySource          map[string]int `json:"by_source"`
}

// Summarize computes [Stats] over records. AverageConfidence is 0 when there
// are no records.
func Summarize(records []reconcile.Record) Stats {
	s := Stats{
		TotalCorrections: len(records),
		BySource:         make(map[string]int, 4),
	}
	if len(records) == 0 {
		return s
	}
	var sum float64
	for _, r := range records {
		sum += r.Confidence
		s.BySource[r.Source]++
	}
	s.AverageConfidence = sum / float64(len(records))
	return s
}

// wordOps weights substitutions like insertions plus deletions do not:
// standard WER counts a substitution as a single error.
var wordOps = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: func(a, b rune) bool { return a == b },
}

// WordErrorRate computes the standard WER of hypothesis against reference:
// word-level edit distance divided by the reference length. Comparison is
// case- and diacritic-insensitive, matching the alignment stage. An empty
// reference yields 0 against an empty hypothesis and 1 otherwise.
func WordErrorRate(reference, hypothesis string) float64 {
	tok := align.NewTokenizer()
	ref := tok.Tokenize(reference)
	hyp := tok.Tokenize(hypothesis)

	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0
		}
		return 1
	}

	// The edit-distance package walks rune slices, so each distinct word key
	// is mapped to a private rune.
	ids := make(map[string]rune)
	encode := func(tokens []align.Token) []rune {
		out := make([]rune, len(tokens))
		for i, t := range tokens {
			id, ok := ids[t.Key]
			if !ok {
				id = rune(len(ids) + 1)
				ids[t.Key] = id
			}
			out[i] = id
		}
		return out
	}
	refRunes := encode(ref)
	hypRunes := encode(hyp)

	dist := levenshtein.DistanceForStrings(refRunes, hypRunes, wordOps)
	return float64(dist) / float64(len(ref))
}

// Improvement reports the WER before and after correction in one call.
func Improvement(reference, before, after string) (werBefore, werAfter float64) {
	return WordErrorRate(reference, before), WordErrorRate(reference, after)
}

// FormatSources renders the per-source tally deterministically for logs,
// e.g. "aligner-1:1=2 aligner-many:few=1".
func FormatSources(s Stats) string {
	if len(s.BySource) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(s.BySource))
	for k := range s.BySource {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.Itoa(s.BySource[k])
	}
	return strings.Join(parts, " ")
}
