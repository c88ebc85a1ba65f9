package reconcile

import (
	"strings"

	"github.com/karaokeforge/lyrsync/internal/align"
	"github.com/karaokeforge/lyrsync/pkg/asr"
)

// decisions maps a source token index to its replacement text. An empty
// string marks the token for deletion; absence means the token is kept.
type decisions map[int]string

// alignDecisions walks the opcode list and computes, for every affected
// source token, what should happen to it, together with the correction
// records that make each change traceable.
//
// Policy, per opcode tag:
//
//   - equal: kept; when the surface form differs from the reference surface
//     (casing, diacritics) the reference form is adopted and recorded as a
//     1:1 correction with confidence 1.0.
//   - replace with equally long ranges: one-to-one substitution, one record
//     per changed pair.
//   - replace with a longer source range: the reference words are joined
//     with single spaces and attached to the first source index; the
//     remaining source indices in the range are deleted. One many:few record.
//   - replace with a shorter source range: the joined reference words are
//     attached to the first source index; any other source indices in the
//     range are deleted so no word is duplicated. One few:many record.
//   - delete: each source token removed, one record each, no replacement.
//   - insert: reference-only words are not re-inserted — no timing exists
//     for them. ModeFullSync is the strategy that recovers them.
func alignDecisions(src, ref []align.Token, ops []align.Opcode) (decisions, []Record) {
	dec := make(decisions)
	records := []Record{}

	for _, op := range ops {
		switch op.Tag {
		case align.OpEqual:
			for k := 0; k < op.I2-op.I1; k++ {
				s, t := src[op.I1+k], ref[op.J1+k]
				if s.Text != t.Text {
					dec[s.Index] = t.Text
					records = append(records, Record{
						Original:   s.Text,
						Corrected:  t.Text,
						Index:      s.Index,
						Confidence: 1.0,
						Source:     SourceOneToOne,
					})
				}
			}

		case align.OpReplace:
			nSrc, nRef := op.I2-op.I1, op.J2-op.J1
			switch {
			case nSrc == nRef:
				for k := 0; k < nSrc; k++ {
					s, t := src[op.I1+k], ref[op.J1+k]
					if s.Text == t.Text {
						continue
					}
					dec[s.Index] = t.Text
					records = append(records, Record{
						Original:   s.Text,
						Corrected:  t.Text,
						Index:      s.Index,
						Confidence: 1.0,
						Source:     SourceOneToOne,
					})
				}
			default:
				source := SourceManyToFew
				if nSrc < nRef {
					source = SourceFewToMany
				}
				joined := align.JoinText(ref[op.J1:op.J2])
				first := src[op.I1]
				dec[first.Index] = joined
				for i := op.I1 + 1; i < op.I2; i++ {
					dec[src[i].Index] = ""
				}
				records = append(records, Record{
					Original:   align.JoinText(src[op.I1:op.I2]),
					Corrected:  joined,
					Index:      first.Index,
					Confidence: 1.0,
					Source:     source,
				})
			}

		case align.OpDelete:
			for i := op.I1; i < op.I2; i++ {
				dec[src[i].Index] = ""
				records = append(records, Record{
					Original:   src[i].Text,
					Corrected:  "",
					Index:      src[i].Index,
					Confidence: 1.0,
					Source:     SourceDelete,
				})
			}

		case align.OpInsert:
			// Intentionally skipped; see the policy note above.
		}
	}
	return dec, records
}

// applyWordCorrections rebuilds each segment's text from its surviving and
// corrected tokens. Segment count, start, and end are unchanged — only the
// internal word content differs. The returned tally counts corrections per
// input segment (used by ModeHybrid).
func (r *Reconciler) applyWordCorrections(
	segments []asr.Segment,
	counts []int,
	src, ref []align.Token,
	ops []align.Opcode,
) ([]asr.Segment, []Record, []int) {
	dec, records := alignDecisions(src, ref, ops)

	out := make([]asr.Segment, len(segments))
	tally := make([]int, len(segments))

	idx := 0
	for si, seg := range segments {
		words := make([]string, 0, counts[si])
		for k := 0; k < counts[si]; k++ {
			tok := src[idx]
			if repl, changed := dec[tok.Index]; changed {
				tally[si]++
				if repl != "" {
					words = append(words, repl)
				}
			} else {
				words = append(words, tok.Text)
			}
			idx++
		}
		out[si] = asr.Segment{
			Text:  strings.Join(words, " "),
			Start: seg.Start,
			End:   seg.End,
		}
	}
	return out, records, tally
}

// fullSync discards the transcribed wording in favour of the reference
// tokens and derives per-word timing from the alignment:
//
//   - A reference token covered by an equal or replace opcode inherits the
//     start of the segment owning its aligned source token; its end
//     stretches to the next word's start when that start is later, otherwise
//     the configured span applies.
//   - A reference-only token (insert opcode) starts at the previous word's
//     end and lasts the configured span.
//
// Starts are clamped to be non-decreasing across the output.
func (r *Reconciler) fullSync(
	segments []asr.Segment,
	counts []int,
	src, ref []align.Token,
	ops []align.Opcode,
) ([]WordTiming, []Record) {
	_, records := alignDecisions(src, ref, ops)

	// Segment ownership of each flat source index.
	segOf := make([]int, 0, len(src))
	for si, n := range counts {
		for k := 0; k < n; k++ {
			segOf = append(segOf, si)
		}
	}

	// Aligned source token per reference index; -1 for reference-only words.
	assign := make([]int, len(ref))
	for j := range assign {
		assign[j] = -1
	}
	for _, op := range ops {
		switch op.Tag {
		case align.OpEqual:
			for k := 0; k < op.J2-op.J1; k++ {
				assign[op.J1+k] = op.I1 + k
			}
		case align.OpReplace:
			for j := op.J1; j < op.J2; j++ {
				si := op.I1 + (j - op.J1)
				if si >= op.I2 {
					si = op.I2 - 1
				}
				assign[j] = si
			}
		}
	}

	words := make([]WordTiming, 0, len(ref))
	prevStart, prevEnd := 0.0, 0.0
	aligned := make([]bool, len(ref))
	for j, tok := range ref {
		var start float64
		if si := assign[j]; si >= 0 {
			start = segments[segOf[si]].Start
			aligned[j] = true
		} else {
			start = prevEnd
		}
		if start < prevStart {
			start = prevStart
		}
		end := start + r.wordSpan
		words = append(words, WordTiming{Word: tok.Text, Start: start, End: end})
		prevStart, prevEnd = start, end
	}

	// Stretch aligned words to the start of the following word.
	for j := 0; j < len(words)-1; j++ {
		if aligned[j] && words[j+1].Start > words[j].Start {
			words[j].End = words[j+1].Start
		}
	}
	return words, records
}
