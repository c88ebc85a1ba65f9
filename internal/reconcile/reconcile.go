// Package reconcile merges an authoritative reference lyric into a
// timestamped recogniser transcript.
//
// The recogniser is fast but error-prone on proper nouns and homophones; the
// lyric database knows the words but not the timing. A [Reconciler] aligns
// the two token sequences and rewrites the transcript according to one of
// three strategies:
//
//   - [ModeWordCorrection] — fix wrong words in place, keep every segment and
//     its timing untouched.
//   - [ModeHybrid] — same substitutions as word correction, with a guarantee
//     that the segment count never changes and a per-segment correction tally
//     for reporting.
//   - [ModeFullSync] — discard the transcribed wording entirely in favour of
//     the reference, inheriting timing from the alignment. Note that this
//     mode changes the output shape: the result is a flat list of word
//     timings, not sentence-level segments.
//
// Every token that is changed, consolidated, or removed is attributable to a
// [Record] naming its opcode-derived source — nothing is dropped silently.
// A Reconciler holds no mutable state across calls and is safe for
// concurrent use.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/karaokeforge/lyrsync/internal/align"
	"github.com/karaokeforge/lyrsync/pkg/asr"
)

// Mode selects the reconciliation strategy.
type Mode string

// The closed set of reconciliation modes.
const (
	ModeWordCorrection Mode = "word-correction"
	ModeHybrid         Mode = "hybrid"
	ModeFullSync       Mode = "full-sync"
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeWordCorrection, ModeHybrid, ModeFullSync:
		return true
	}
	return false
}

// Correction record sources produced by the alignment strategies. Pattern
// corrections carry their pattern identifier instead.
const (
	// SourceOneToOne marks a one-to-one word substitution.
	SourceOneToOne = "aligner-1:1"

	// SourceManyToFew marks a consolidation: several transcribed tokens
	// replaced by fewer reference words joined with single spaces.
	SourceManyToFew = "aligner-many:few"

	// SourceFewToMany marks an expansion: a transcribed token replaced by
	// several reference words joined with single spaces.
	SourceFewToMany = "aligner-few:many"

	// SourceDelete marks a transcribed token removed without replacement.
	SourceDelete = "aligner-delete"

	// SourcePhonetic marks a pre-alignment hotword repair decided by
	// phonetic similarity.
	SourcePhonetic = "phonetic"
)

// Record captures a single correction. Records are created during one
// reconciliation or pattern pass and never mutated afterwards.
type Record struct {
	// Original is the text as transcribed.
	Original string `json:"original"`

	// Corrected is the replacement text; empty for a pure deletion.
	Corrected string `json:"corrected"`

	// Index locates the correction: a source token index for alignment and
	// phonetic corrections, a byte position for pattern corrections.
	Index int `json:"index"`

	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence"`

	// Source is one of the sources above or a pattern identifier.
	Source string `json:"source"`
}

// WordTiming is one word of [ModeFullSync] output.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is the outcome of one reconciliation call.
type Result struct {
	// Mode is the strategy that produced this result.
	Mode Mode `json:"mode"`

	// Segments is the corrected segment list for ModeWordCorrection and
	// ModeHybrid: same count and timing as the input, new text. Nil for
	// ModeFullSync unless the reference was empty (degenerate no-op).
	Segments []asr.Segment `json:"segments,omitempty"`

	// Words is the flat word-timing list for ModeFullSync; nil otherwise.
	Words []WordTiming `json:"words,omitempty"`

	// Records lists every correction in order. Empty, non-nil, when the
	// transcript already matched the reference.
	Records []Record `json:"records"`

	// SegmentCorrections tallies corrections per input segment. Populated
	// only by ModeHybrid.
	SegmentCorrections []int `json:"segment_corrections,omitempty"`
}

// DefaultMaxTokens is the default token-count ceiling per sequence. The
// aligner is O(N·M) and sized for song-length lyrics, not arbitrary
// documents.
const DefaultMaxTokens = 5000

// defaultWordSpan is the synthesized word duration, in seconds, used by
// ModeFullSync when no later timing anchor exists.
const defaultWordSpan = 0.5

// ErrTooManyTokens is returned when either token sequence exceeds the
// configured ceiling.
var ErrTooManyTokens = errors.New("reconcile: token sequence exceeds configured ceiling")

// Option is a functional option for configuring a [Reconciler].
type Option func(*Reconciler)

// WithMaxTokens sets the per-sequence token ceiling. Default: [DefaultMaxTokens].
func WithMaxTokens(n int) Option {
	return func(r *Reconciler) {
		r.maxTokens = n
	}
}

// WithWordSpan sets the synthesized word duration in seconds for
// [ModeFullSync]. Default: 0.5.
func WithWordSpan(seconds float64) Option {
	return func(r *Reconciler) {
		r.wordSpan = seconds
	}
}

// WithTokenizer replaces the default tokenizer.
func WithTokenizer(t *align.Tokenizer) Option {
	return func(r *Reconciler) {
		r.tok = t
	}
}

// Reconciler applies one reconciliation strategy. It is read-only after
// construction and safe for concurrent use.
type Reconciler struct {
	mode      Mode
	tok       *align.Tokenizer
	maxTokens int
	wordSpan  float64
}

// New returns a [Reconciler] for the given mode.
func New(mode Mode, opts ...Option) (*Reconciler, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("reconcile: unknown mode %q", mode)
	}
	r := &Reconciler{
		mode:      mode,
		tok:       align.NewTokenizer(),
		maxTokens: DefaultMaxTokens,
		wordSpan:  defaultWordSpan,
	}
	for _, o := range opts {
		o(r)
	}
	if r.maxTokens <= 0 {
		return nil, fmt.Errorf("reconcile: max tokens must be positive, got %d", r.maxTokens)
	}
	if r.wordSpan <= 0 {
		return nil, fmt.Errorf("reconcile: word span must be positive, got %g", r.wordSpan)
	}
	return r, nil
}

// Mode returns the configured strategy.
func (r *Reconciler) Mode() Mode {
	return r.mode
}

// Reconcile aligns the transcribed segments against the reference lyric text
// and returns corrected output per the configured mode. The input segments
// are never modified.
//
// An empty reference (or one that tokenises to nothing) is an expected
// upstream case, not an error: the input segments are returned unchanged
// with zero correction records, in every mode.
func (r *Reconciler) Reconcile(segments []asr.Segment, reference string) (*Result, error) {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	src, counts := r.tok.TokenizeAll(texts)
	ref := r.tok.Tokenize(reference)

	if len(ref) == 0 {
		out := make([]asr.Segment, len(segments))
		copy(out, segments)
		res := &Result{Mode: r.mode, Segments: out, Records: []Record{}}
		if r.mode == ModeHybrid {
			res.SegmentCorrections = make([]int, len(segments))
		}
		return res, nil
	}
	if len(src) > r.maxTokens || len(ref) > r.maxTokens {
		return nil, fmt.Errorf("%w: %d source / %d reference tokens, ceiling %d",
			ErrTooManyTokens, len(src), len(ref), r.maxTokens)
	}

	ops := align.Diff(src, ref)

	switch r.mode {
	case ModeWordCorrection:
		segs, records, _ := r.applyWordCorrections(segments, counts, src, ref, ops)
		return &Result{Mode: r.mode, Segments: segs, Records: records}, nil
	case ModeHybrid:
		segs, records, tally := r.applyWordCorrections(segments, counts, src, ref, ops)
		return &Result{Mode: r.mode, Segments: segs, Records: records, SegmentCorrections: tally}, nil
	case ModeFullSync:
		words, records := r.fullSync(segments, counts, src, ref, ops)
		return &Result{Mode: r.mode, Words: words, Records: records}, nil
	default:
		// New() rejects unknown modes; this is unreachable.
		return nil, fmt.Errorf("reconcile: unknown mode %q", r.mode)
	}
}
