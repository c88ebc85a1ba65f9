// Package mock provides a test double for the lyrics package interfaces.
//
// Use Provider to feed controlled lyric records into the pipeline and
// inspect which queries were issued.
//
// Example:
//
//	p := &mock.Provider{Result: &lyrics.Lyrics{PlainLyrics: "..."}}
//	rec, _ := p.Lookup(ctx, lyrics.Query{ArtistName: "Pollo", TrackName: "Vagalumes"})
package mock

import (
	"context"
	"sync"

	"github.com/karaokeforge/lyrsync/pkg/lyrics"
)

// LookupCall records a single invocation of Provider.Lookup.
type LookupCall struct {
	// Ctx is the context passed to Lookup.
	Ctx context.Context
	// Query is the query passed to Lookup.
	Query lyrics.Query
}

// Provider is a mock implementation of lyrics.Provider.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Lookup when Err is nil.
	Result *lyrics.Lyrics

	// Err, if non-nil, is returned as the error from Lookup.
	Err error

	// LookupCalls records every call to Lookup in order.
	LookupCalls []LookupCall
}

// Lookup records the call and returns Result, Err. When both are nil it
// returns lyrics.ErrNotFound, matching a real provider with no record.
func (p *Provider) Lookup(ctx context.Context, q lyrics.Query) (*lyrics.Lyrics, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LookupCalls = append(p.LookupCalls, LookupCall{Ctx: ctx, Query: q})
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Result == nil {
		return nil, lyrics.ErrNotFound
	}
	return p.Result, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LookupCalls = nil
}
