// Package app wires the lyrsync subsystems into a reconciliation pipeline.
//
// A [Pipeline] runs one song end to end: look up the reference lyric,
// extract hotwords and phonetically repair transcript words mangled from
// them, align and reconcile the transcript, apply the pattern corrector,
// and report the result. For testing, inject a mock lyric
// provider; when the lyric lookup fails the pipeline degrades to a no-op
// pass-through instead of failing the job.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/karaokeforge/lyrsync/internal/align"
	"github.com/karaokeforge/lyrsync/internal/config"
	"github.com/karaokeforge/lyrsync/internal/hotword"
	"github.com/karaokeforge/lyrsync/internal/observe"
	"github.com/karaokeforge/lyrsync/internal/pattern"
	"github.com/karaokeforge/lyrsync/internal/phonetic"
	"github.com/karaokeforge/lyrsync/internal/reconcile"
	"github.com/karaokeforge/lyrsync/internal/report"
	"github.com/karaokeforge/lyrsync/pkg/asr"
	"github.com/karaokeforge/lyrsync/pkg/lyrics"
)

// Job is one transcript to reconcile.
type Job struct {
	// Name labels the job in logs and errors, typically the transcript
	// file name or "artist - track".
	Name string

	// Transcript is the recogniser output to correct.
	Transcript *asr.Transcript

	// Query identifies the song for the lyric lookup.
	Query lyrics.Query
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	// Name echoes the job name.
	Name string `json:"name"`

	// LyricsFound reports whether a reference lyric was available. When
	// false the transcript passed through uncorrected.
	LyricsFound bool `json:"lyrics_found"`

	// Hotwords are the recognition hints extracted from the lyric.
	Hotwords []string `json:"hotwords,omitempty"`

	// Mode is the reconciliation strategy that ran.
	Mode reconcile.Mode `json:"mode"`

	// Segments is the corrected segment list (word-correction and hybrid).
	Segments []asr.Segment `json:"segments,omitempty"`

	// Words is the flat word-timing list (full-sync).
	Words []reconcile.WordTiming `json:"words,omitempty"`

	// CorrectedText is the full corrected transcript text.
	CorrectedText string `json:"corrected_text"`

	// Records lists every correction in stage order: phonetic hotword
	// repairs, then alignment, then pattern.
	Records []reconcile.Record `json:"records"`

	// Stats aggregates the records.
	Stats report.Stats `json:"stats"`

	// WERBefore and WERAfter measure the transcript against the reference
	// lyric before and after correction. Zero when no lyric was found.
	WERBefore float64 `json:"wer_before"`
	WERAfter  float64 `json:"wer_after"`
}

// Pipeline runs reconciliation jobs. Construct with [New]; safe for
// concurrent use.
type Pipeline struct {
	provider   lyrics.Provider
	reconciler *reconcile.Reconciler
	extractor  *hotword.Extractor
	tok        *align.Tokenizer
	matcher    *phonetic.Matcher
	metrics    *observe.Metrics

	baseRules        []pattern.Pattern
	correctorEnabled bool
	correctorOpts    []pattern.Option
}

// New builds a [Pipeline] from cfg. The lyric provider is injected so tests
// and alternative lyric sources need no config plumbing.
func New(cfg *config.Config, provider lyrics.Provider) (*Pipeline, error) {
	if provider == nil {
		return nil, errors.New("app: lyric provider is required")
	}

	var recOpts []reconcile.Option
	if cfg.Reconcile.MaxTokens > 0 {
		recOpts = append(recOpts, reconcile.WithMaxTokens(cfg.Reconcile.MaxTokens))
	}
	if cfg.Reconcile.WordSpanMS > 0 {
		recOpts = append(recOpts, reconcile.WithWordSpan(float64(cfg.Reconcile.WordSpanMS)/1000))
	}
	mode := cfg.Reconcile.Mode
	if mode == "" {
		mode = reconcile.ModeHybrid
	}
	rec, err := reconcile.New(mode, recOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	var hwOpts []hotword.Option
	if cfg.Hotwords.Max > 0 {
		hwOpts = append(hwOpts, hotword.WithMax(cfg.Hotwords.Max))
	}

	p := &Pipeline{
		provider:         provider,
		reconciler:       rec,
		extractor:        hotword.New(hwOpts...),
		tok:              align.NewTokenizer(),
		matcher:          phonetic.New(),
		metrics:          observe.DefaultMetrics(),
		correctorEnabled: cfg.Corrector.Enabled,
	}
	if cfg.Corrector.ConfidenceThreshold > 0 {
		p.correctorOpts = append(p.correctorOpts,
			pattern.WithConfidenceThreshold(cfg.Corrector.ConfidenceThreshold))
	}
	if cfg.Corrector.Enabled {
		p.baseRules = append(pattern.DefaultRules(), cfg.Corrector.Rules...)
		// Compile once now so bad user rules fail at startup, not per job.
		if _, err := pattern.NewCorrector(p.baseRules, p.correctorOpts...); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	return p, nil
}

// Run executes one job.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Outcome, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.run")
	defer span.End()
	log := observe.Logger(ctx).With("job", job.Name)

	if job.Transcript == nil {
		return nil, fmt.Errorf("app: job %q has no transcript", job.Name)
	}

	p.metrics.ActiveJobs.Add(ctx, 1)
	defer p.metrics.ActiveJobs.Add(ctx, -1)

	out := &Outcome{Name: job.Name, Mode: p.reconciler.Mode()}

	ref := p.lookupLyrics(ctx, log, job)
	if ref == "" {
		// Degraded mode: nothing to reconcile against.
		out.Segments = append([]asr.Segment(nil), job.Transcript.Segments...)
		out.CorrectedText = job.Transcript.PlainText()
		out.Records = []reconcile.Record{}
		out.Stats = report.Summarize(nil)
		return out, nil
	}
	out.LyricsFound = true
	out.Hotwords = p.extractor.Extract(ref)

	segments, phonRecords := p.applyPhonetic(job.Transcript.Segments, out.Hotwords, ref)

	start := time.Now()
	res, err := p.reconciler.Reconcile(segments, ref)
	if err != nil {
		return nil, fmt.Errorf("app: reconcile %q: %w", job.Name, err)
	}
	p.metrics.ReconcileDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("mode", string(res.Mode))))

	out.Segments = res.Segments
	out.Words = res.Words
	out.Records = append(phonRecords, res.Records...)
	out.CorrectedText = resultText(res)

	if p.correctorEnabled {
		out.CorrectedText = p.applyPatterns(ctx, log, out, job.Query)
	}

	for _, r := range out.Records {
		p.metrics.RecordCorrection(ctx, r.Source)
	}
	out.Stats = report.Summarize(out.Records)
	out.WERBefore, out.WERAfter = report.Improvement(ref, job.Transcript.PlainText(), out.CorrectedText)

	log.Info("job reconciled",
		"mode", out.Mode,
		"corrections", out.Stats.TotalCorrections,
		"sources", report.FormatSources(out.Stats),
		"wer_before", out.WERBefore,
		"wer_after", out.WERAfter,
	)
	return out, nil
}

// lookupLyrics fetches the reference lyric text, returning "" when the song
// is unknown or the lookup fails. Only usable plain text counts. Lookup
// counters are owned by the providers themselves, each under its own origin;
// the pipeline only times the whole chain.
func (p *Pipeline) lookupLyrics(ctx context.Context, log *slog.Logger, job Job) string {
	start := time.Now()
	rec, err := p.provider.Lookup(ctx, job.Query)
	p.metrics.LyricsLookupDuration.Record(ctx, time.Since(start).Seconds())

	switch {
	case errors.Is(err, lyrics.ErrNotFound):
		log.Warn("no reference lyric found; passing transcript through",
			"artist", job.Query.ArtistName, "track", job.Query.TrackName)
		return ""
	case err != nil:
		log.Warn("lyric lookup failed; passing transcript through", "error", err)
		return ""
	case !rec.HasText():
		log.Info("lyric record has no usable text", "instrumental", rec.Instrumental)
		return ""
	}
	return rec.PlainLyrics
}

// applyPhonetic rewrites transcript words that sound like one of the
// single-word hotwords, before alignment runs. Only words absent from the
// reference are candidates, so a word the transcript and the lyric genuinely
// share is never touched; a mangled proper noun is restored to the spelling
// the aligner can then pair exactly. Record indices are source token
// positions, matching the aligner's.
func (p *Pipeline) applyPhonetic(segments []asr.Segment, hotwords []string, ref string) ([]asr.Segment, []reconcile.Record) {
	var candidates []string
	for _, hw := range hotwords {
		if !strings.Contains(hw, " ") {
			candidates = append(candidates, hw)
		}
	}
	if len(candidates) == 0 {
		return segments, nil
	}

	refKeys := make(map[string]struct{})
	for _, key := range align.Keys(p.tok.Tokenize(ref)) {
		refKeys[key] = struct{}{}
	}

	corrected := append([]asr.Segment(nil), segments...)
	var records []reconcile.Record
	index := 0
	for si := range corrected {
		fields := strings.Fields(corrected[si].Text)
		changed := false
		for fi, field := range fields {
			toks := p.tok.Tokenize(field)
			if len(toks) != 1 {
				index += len(toks)
				continue
			}
			word := toks[0]
			if _, ok := refKeys[word.Key]; ok {
				index++
				continue
			}
			hw, dist, ok := p.matcher.BestMatch(word.Text, candidates, 0)
			if !ok {
				index++
				continue
			}
			fields[fi] = strings.Replace(field, word.Text, hw, 1)
			records = append(records, reconcile.Record{
				Original:   word.Text,
				Corrected:  hw,
				Index:      index,
				Confidence: 1 - dist,
				Source:     reconcile.SourcePhonetic,
			})
			changed = true
			index++
		}
		if changed {
			corrected[si].Text = strings.Join(fields, " ")
		}
	}
	return corrected, records
}

// applyPatterns runs the pattern stage over the reconciled full text.
// Hotword rules are derived per job from the extracted hotwords plus the
// song's own metadata, so a multi-word artist name corrects itself. Pattern
// records index into the corrected full text, and only CorrectedText carries
// the pattern fixes: per-segment text keeps the alignment-stage result, since
// a pattern's context can span segment boundaries.
func (p *Pipeline) applyPatterns(ctx context.Context, log *slog.Logger, out *Outcome, q lyrics.Query) string {
	hints := append([]string(nil), out.Hotwords...)
	hints = append(hints, q.ArtistName, q.TrackName)

	rules := append([]pattern.Pattern(nil), p.baseRules...)
	rules = append(rules, pattern.HotwordPatterns(hints)...)

	corr, err := pattern.NewCorrector(rules, p.correctorOpts...)
	if err != nil {
		// Base rules compiled at startup; only derived rules can fail.
		log.Warn("skipping pattern stage", "error", err)
		return out.CorrectedText
	}

	text, records := corr.Apply(out.CorrectedText)
	for _, r := range records {
		p.metrics.PatternHits.Add(ctx, 1, metric.WithAttributes(observe.Attr("pattern", r.Source)))
	}
	out.Records = append(out.Records, records...)
	return text
}

// RunBatch reconciles several jobs concurrently, at most limit at a time.
// The first error cancels the remaining jobs. Outcomes are returned in job
// order.
func (p *Pipeline) RunBatch(ctx context.Context, jobs []Job, limit int) ([]*Outcome, error) {
	if limit <= 0 {
		limit = 4
	}
	outcomes := make([]*Outcome, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			out, err := p.Run(ctx, job)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// resultText flattens a reconciliation result into plain text.
func resultText(res *reconcile.Result) string {
	var parts []string
	if res.Mode == reconcile.ModeFullSync {
		for _, w := range res.Words {
			parts = append(parts, w.Word)
		}
	} else {
		for _, s := range res.Segments {
			if s.Text != "" {
				parts = append(parts, s.Text)
			}
		}
	}
	return strings.Join(parts, " ")
}
