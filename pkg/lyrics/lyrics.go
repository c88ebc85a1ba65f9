// Package lyrics defines the reference-lyric provider abstraction used by
// the reconciliation pipeline, and the data types lyric services return.
package lyrics

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no lyric record exists for a query. Callers
// treat it as a degraded-mode signal, not a failure.
var ErrNotFound = errors.New("lyrics: not found")

// Query identifies a song. ArtistName and TrackName are required; AlbumName
// and DurationSec sharpen the lookup when known.
type Query struct {
	ArtistName  string
	TrackName   string
	AlbumName   string
	DurationSec int
}

// Validate reports whether the query carries the required fields.
func (q Query) Validate() error {
	if strings.TrimSpace(q.ArtistName) == "" {
		return errors.New("lyrics: artist name is required")
	}
	if strings.TrimSpace(q.TrackName) == "" {
		return errors.New("lyrics: track name is required")
	}
	return nil
}

// Lyrics is one lyric record.
type Lyrics struct {
	// ID is the record identifier assigned by the lyric service.
	ID int64 `json:"id"`

	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
	AlbumName  string `json:"albumName,omitempty"`

	// Duration is the track length in seconds.
	Duration int `json:"duration"`

	// Instrumental marks tracks with no lyrics at all.
	Instrumental bool `json:"instrumental"`

	// PlainLyrics is the full lyric text, one line per lyric line.
	PlainLyrics string `json:"plainLyrics"`

	// SyncedLyrics is the LRC-formatted text with inline timestamps; empty
	// when the service has no synchronised version.
	SyncedLyrics string `json:"syncedLyrics,omitempty"`
}

// HasText reports whether the record carries usable lyric text.
func (l *Lyrics) HasText() bool {
	return l != nil && !l.Instrumental && strings.TrimSpace(l.PlainLyrics) != ""
}

// Provider is a source of reference lyrics. Implementations must return
// [ErrNotFound] (possibly wrapped) when the song is unknown, and must be safe
// for concurrent use.
type Provider interface {
	Lookup(ctx context.Context, q Query) (*Lyrics, error)
}
