package reconcile_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/karaokeforge/lyrsync/internal/reconcile"
	"github.com/karaokeforge/lyrsync/pkg/asr"
)

// vagalumesSegments mirrors a real WhisperX run over "Vagalumes" where the
// proper noun "Janelle Monáe" was misheard as "janela e monê".
func vagalumesSegments() []asr.Segment {
	return []asr.Segment{
		{Text: "Eu", Start: 9.0, End: 9.2},
		{Text: "e", Start: 9.3, End: 9.4},
		{Text: "você", Start: 9.5, End: 9.8},
		{Text: "ao", Start: 9.9, End: 10.0},
		{Text: "som", Start: 10.1, End: 10.3},
		{Text: "de", Start: 10.4, End: 10.5},
		{Text: "janela", Start: 10.6, End: 11.0},
		{Text: "e", Start: 11.1, End: 11.2},
		{Text: "monê", Start: 11.3, End: 11.7},
		{Text: "Vem", Start: 11.8, End: 12.0},
		{Text: "deixa", Start: 12.1, End: 12.4},
		{Text: "acontecer", Start: 12.5, End: 13.0},
	}
}

const vagalumesReference = "Eu e você ao som de Janelle Monáe\nVem, deixa acontecer"

func joinSegments(segs []asr.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

func mustReconciler(t *testing.T, mode reconcile.Mode, opts ...reconcile.Option) *reconcile.Reconciler {
	t.Helper()
	r, err := reconcile.New(mode, opts...)
	if err != nil {
		t.Fatalf("New(%s): %v", mode, err)
	}
	return r
}

func checkConfidenceBounds(t *testing.T, records []reconcile.Record) {
	t.Helper()
	for i, rec := range records {
		if rec.Confidence < 0 || rec.Confidence > 1 {
			t.Errorf("records[%d].Confidence = %f; want within [0, 1]", i, rec.Confidence)
		}
	}
}

func TestNew_RejectsUnknownMode(t *testing.T) {
	t.Parallel()

	if _, err := reconcile.New("karaoke"); err == nil {
		t.Fatal("New accepted an unknown mode")
	}
	if _, err := reconcile.New(reconcile.ModeHybrid, reconcile.WithMaxTokens(0)); err == nil {
		t.Fatal("New accepted a zero token ceiling")
	}
	if _, err := reconcile.New(reconcile.ModeFullSync, reconcile.WithWordSpan(-1)); err == nil {
		t.Fatal("New accepted a negative word span")
	}
}

func TestWordCorrection_ManyToFewConsolidation(t *testing.T) {
	t.Parallel()

	r := mustReconciler(t, reconcile.ModeWordCorrection)
	res, err := r.Reconcile(vagalumesSegments(), vagalumesReference)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	var consolidations []reconcile.Record
	for _, rec := range res.Records {
		if rec.Source == reconcile.SourceManyToFew {
			consolidations = append(consolidations, rec)
		}
	}
	if len(consolidations) != 1 {
		t.Fatalf("got %d many:few records (%v); want exactly 1", len(consolidations), res.Records)
	}
	c := consolidations[0]
	if c.Corrected != "Janelle Monáe" {
		t.Errorf("consolidated text = %q; want %q", c.Corrected, "Janelle Monáe")
	}
	if c.Original != "janela e monê" {
		t.Errorf("consolidated original = %q; want %q", c.Original, "janela e monê")
	}
	if c.Confidence != 1.0 {
		t.Errorf("consolidation confidence = %f; want 1.0", c.Confidence)
	}

	full := joinSegments(res.Segments)
	if !strings.Contains(full, "Janelle Monáe") {
		t.Errorf("output %q does not contain %q", full, "Janelle Monáe")
	}
	if strings.Contains(strings.ToLower(full), "janela e monê") {
		t.Errorf("output %q still contains the misheard phrase", full)
	}
	// No orphan words: the two interior tokens were emptied, not replaced.
	if res.Segments[7].Text != "" || res.Segments[8].Text != "" {
		t.Errorf("interior tokens not removed: %q / %q", res.Segments[7].Text, res.Segments[8].Text)
	}
	checkConfidenceBounds(t, res.Records)
}

func TestWordCorrection_TimingAndShapeUnchanged(t *testing.T) {
	t.Parallel()

	in := vagalumesSegments()
	r := mustReconciler(t, reconcile.ModeWordCorrection)
	res, err := r.Reconcile(in, vagalumesReference)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(res.Segments) != len(in) {
		t.Fatalf("segment count changed: %d → %d", len(in), len(res.Segments))
	}
	for i := range in {
		if res.Segments[i].Start != in[i].Start || res.Segments[i].End != in[i].End {
			t.Errorf("segment %d timing changed: [%f,%f] → [%f,%f]",
				i, in[i].Start, in[i].End, res.Segments[i].Start, res.Segments[i].End)
		}
	}
	// The caller's slice is never mutated in place.
	if in[6].Text != "janela" {
		t.Errorf("input segment mutated: %q", in[6].Text)
	}
}

func TestWordCorrection_RoundTrip(t *testing.T) {
	t.Parallel()

	segs := []asr.Segment{
		{Text: "Eu e você ao som", Start: 0, End: 2},
		{Text: "Vem deixa acontecer", Start: 2, End: 4},
	}
	r := mustReconciler(t, reconcile.ModeWordCorrection)
	res, err := r.Reconcile(segs, "Eu e você ao som Vem deixa acontecer")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("round trip produced %d records: %v", len(res.Records), res.Records)
	}
	if res.Records == nil {
		t.Error("Records is nil; want empty non-nil slice")
	}
	for i, s := range res.Segments {
		if s.Text != segs[i].Text {
			t.Errorf("segment %d text changed: %q → %q", i, segs[i].Text, s.Text)
		}
	}
}

func TestWordCorrection_SurfaceFormAdoptsReference(t *testing.T) {
	t.Parallel()

	segs := []asr.Segment{{Text: "eu e voce", Start: 0, End: 1}}
	r := mustReconciler(t, reconcile.ModeWordCorrection)
	res, err := r.Reconcile(segs, "Eu e você")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if res.Segments[0].Text != "Eu e você" {
		t.Errorf("text = %q; want %q", res.Segments[0].Text, "Eu e você")
	}
	if len(res.Records) != 2 {
		t.Fatalf("got %d records (%v); want 2 surface corrections", len(res.Records), res.Records)
	}
	for _, rec := range res.Records {
		if rec.Source != reconcile.SourceOneToOne {
			t.Errorf("source = %q; want %q", rec.Source, reconcile.SourceOneToOne)
		}
		if rec.Confidence != 1.0 {
			t.Errorf("confidence = %f; want 1.0", rec.Confidence)
		}
	}
}

func TestWordCorrection_DeleteIsTraceable(t *testing.T) {
	t.Parallel()

	segs := []asr.Segment{{Text: "eu e você yeah yeah", Start: 0, End: 2}}
	r := mustReconciler(t, reconcile.ModeWordCorrection)
	res, err := r.Reconcile(segs, "eu e você")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if res.Segments[0].Text != "eu e você" {
		t.Errorf("text = %q; want %q", res.Segments[0].Text, "eu e você")
	}
	var deletes int
	for _, rec := range res.Records {
		if rec.Source == reconcile.SourceDelete {
			deletes++
			if rec.Corrected != "" {
				t.Errorf("delete record has replacement %q", rec.Corrected)
			}
		}
	}
	if deletes != 2 {
		t.Errorf("got %d delete records (%v); want 2", deletes, res.Records)
	}
}

func TestWordCorrection_FewToManyExpansion(t *testing.T) {
	t.Parallel()

	segs := []asr.Segment{{Text: "ao som de janelamonê Vem deixa", Start: 0, End: 3}}
	r := mustReconciler(t, reconcile.ModeWordCorrection)
	res, err := r.Reconcile(segs, "ao som de Janelle Monáe Vem deixa")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	full := joinSegments(res.Segments)
	if !strings.Contains(full, "Janelle Monáe") {
		t.Errorf("output %q does not contain expanded phrase", full)
	}
	if strings.Count(full, "Janelle") != 1 {
		t.Errorf("word duplicated in output %q", full)
	}
	var expansions int
	for _, rec := range res.Records {
		if rec.Source == reconcile.SourceFewToMany {
			expansions++
			if rec.Corrected != "Janelle Monáe" {
				t.Errorf("expansion replacement = %q; want %q", rec.Corrected, "Janelle Monáe")
			}
		}
	}
	if expansions != 1 {
		t.Errorf("got %d few:many records (%v); want 1", expansions, res.Records)
	}
}

func TestWordCorrection_InsertNotReinserted(t *testing.T) {
	t.Parallel()

	segs := []asr.Segment{{Text: "Eu e você ao som", Start: 0, End: 2}}
	r := mustReconciler(t, reconcile.ModeWordCorrection)
	res, err := r.Reconcile(segs, "Eu e você ao som\nAbro a janela pra ver")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := joinSegments(res.Segments); got != "Eu e você ao som" {
		t.Errorf("output = %q; reference-only words must not be re-inserted", got)
	}
	if len(res.Records) != 0 {
		t.Errorf("insert produced records: %v", res.Records)
	}
}

func TestReconcile_EmptyReference(t *testing.T) {
	t.Parallel()

	for _, mode := range []reconcile.Mode{
		reconcile.ModeWordCorrection, reconcile.ModeHybrid, reconcile.ModeFullSync,
	} {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()
			in := vagalumesSegments()
			r := mustReconciler(t, mode)
			res, err := r.Reconcile(in, "  \n [00:10.00] \n ")
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if len(res.Records) != 0 {
				t.Errorf("empty reference produced records: %v", res.Records)
			}
			if len(res.Segments) != len(in) {
				t.Fatalf("segments not passed through unchanged")
			}
			for i := range in {
				if res.Segments[i] != in[i] {
					t.Errorf("segment %d changed: %+v → %+v", i, in[i], res.Segments[i])
				}
			}
		})
	}
}

func TestReconcile_TokenCeiling(t *testing.T) {
	t.Parallel()

	r := mustReconciler(t, reconcile.ModeWordCorrection, reconcile.WithMaxTokens(4))
	segs := []asr.Segment{{Text: "um dois três quatro cinco", Start: 0, End: 5}}
	_, err := r.Reconcile(segs, "um dois")
	if !errors.Is(err, reconcile.ErrTooManyTokens) {
		t.Fatalf("err = %v; want ErrTooManyTokens", err)
	}
}

func TestHybrid_SegmentTally(t *testing.T) {
	t.Parallel()

	r := mustReconciler(t, reconcile.ModeHybrid)
	in := vagalumesSegments()
	res, err := r.Reconcile(in, vagalumesReference)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(res.Segments) != len(in) {
		t.Fatalf("hybrid changed segment count: %d → %d", len(in), len(res.Segments))
	}
	if len(res.SegmentCorrections) != len(in) {
		t.Fatalf("tally length = %d; want %d", len(res.SegmentCorrections), len(in))
	}
	// Segments 6..8 hold the misheard phrase; everything else is untouched.
	for i, n := range res.SegmentCorrections {
		touched := i >= 6 && i <= 8
		if touched && n == 0 {
			t.Errorf("segment %d expected a correction tally, got 0", i)
		}
		if !touched && n != 0 {
			t.Errorf("segment %d expected no corrections, got %d", i, n)
		}
	}
}

func TestFullSync_Monotonic(t *testing.T) {
	t.Parallel()

	reference := "Eu e você ao som de Janelle Monáe\nVem, deixa acontecer\nAbro a janela pra que você possa ver"
	r := mustReconciler(t, reconcile.ModeFullSync)
	res, err := r.Reconcile(vagalumesSegments(), reference)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if res.Segments != nil {
		t.Error("full sync must not return segments")
	}
	if len(res.Words) != 19 {
		t.Fatalf("got %d words; want all 19 reference tokens", len(res.Words))
	}
	prev := res.Words[0].Start
	for i, w := range res.Words {
		if w.Start > w.End {
			t.Errorf("word %d (%q): start %f after end %f", i, w.Word, w.Start, w.End)
		}
		if w.Start < prev {
			t.Errorf("word %d (%q): start %f precedes previous start %f", i, w.Word, w.Start, prev)
		}
		prev = w.Start
	}

	// The wording is the reference's, including the recovered last line.
	var words []string
	for _, w := range res.Words {
		words = append(words, w.Word)
	}
	text := strings.Join(words, " ")
	if !strings.Contains(text, "Janelle Monáe") {
		t.Errorf("full sync output %q lost the reference wording", text)
	}
	if !strings.Contains(text, "Abro a janela pra que você possa ver") {
		t.Errorf("full sync output %q did not recover reference-only words", text)
	}
}

func TestFullSync_InsertSpans(t *testing.T) {
	t.Parallel()

	// Single aligned word followed by two reference-only words: each insert
	// starts at the previous word's end and lasts the configured span.
	segs := []asr.Segment{{Text: "abro", Start: 2.0, End: 2.4}}
	r := mustReconciler(t, reconcile.ModeFullSync, reconcile.WithWordSpan(0.5))
	res, err := r.Reconcile(segs, "abro a janela")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(res.Words) != 3 {
		t.Fatalf("got %d words; want 3", len(res.Words))
	}
	w := res.Words
	if w[0].Start != 2.0 {
		t.Errorf("aligned word start = %f; want 2.0", w[0].Start)
	}
	if w[1].Start != w[0].End {
		t.Errorf("insert start = %f; want previous end %f", w[1].Start, w[0].End)
	}
	if got := w[1].End - w[1].Start; got < 0.499 || got > 0.501 {
		t.Errorf("insert span = %f; want 0.5", got)
	}
	if w[2].Start != w[1].End {
		t.Errorf("second insert start = %f; want %f", w[2].Start, w[1].End)
	}
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	reference := "Eu e você ao som de Janelle Monáe\nVem, deixa acontecer\nAbro a janela pra que você possa ver"
	segs := []asr.Segment{
		{Text: "Eu e você ao som de janela e monê", Start: 9.0, End: 11.7},
		{Text: "Vem, deixa acontecer", Start: 11.8, End: 13.0},
	}

	r := mustReconciler(t, reconcile.ModeWordCorrection)
	res, err := r.Reconcile(segs, reference)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	full := joinSegments(res.Segments)
	if !strings.Contains(full, "Janelle Monáe") {
		t.Errorf("output %q does not contain %q", full, "Janelle Monáe")
	}
	if strings.Contains(strings.ToLower(full), "janela e monê") {
		t.Errorf("output %q still contains the misheard phrase", full)
	}
	checkConfidenceBounds(t, res.Records)
}
