// Package asr defines the read-only input types produced by an external
// automatic speech recogniser and a decoder for their serialised form.
//
// The recogniser itself (model loading, audio decode, GPU selection) is out
// of scope for this module: the reconciliation engine only consumes the
// timestamped segment list a WhisperX-style recogniser emits. Values of these
// types are never mutated by the engine — corrected output is always returned
// as new values.
package asr

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Segment is one timestamped piece of recognised speech.
// Start and End are in seconds from the beginning of the audio. [Decode]
// enforces Start ≤ End, since transcript files are hand-editable.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the full recogniser output for one piece of audio.
type Transcript struct {
	// Language is the detected BCP-47-ish language code (e.g. "pt"), when
	// the recogniser reports one.
	Language string `json:"language,omitempty"`

	// Segments are the timestamped utterances in temporal order.
	Segments []Segment `json:"segments"`
}

// PlainText joins all segment texts with single spaces.
func (t *Transcript) PlainText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if txt := strings.TrimSpace(s.Text); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, " ")
}

// Decode reads a JSON transcript document of the shape
//
//	{"language": "pt", "segments": [{"text": "...", "start": 1.2, "end": 3.4}, ...]}
//
// as emitted by WhisperX-style recognisers. Segments with End before Start
// are rejected.
func Decode(r io.Reader) (*Transcript, error) {
	var t Transcript
	dec := json.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("asr: decode transcript: %w", err)
	}
	for i, s := range t.Segments {
		if s.End < s.Start {
			return nil, fmt.Errorf("asr: segment %d has end %.3f before start %.3f", i, s.End, s.Start)
		}
	}
	return &t, nil
}

// Load reads and decodes the transcript file at path.
func Load(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asr: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("asr: parse %q: %w", path, err)
	}
	return t, nil
}
