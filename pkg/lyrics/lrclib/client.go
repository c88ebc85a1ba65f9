// Package lrclib implements a [lyrics.Provider] backed by the LRCLib public
// API (https://lrclib.net/docs).
//
// Lookup strategy follows the API's own recommendation: when the track
// duration is known, try the exact signature endpoint first (artist, track,
// album, duration with ±2s tolerance on the server side), then fall back to
// the fuzzier search endpoint.
package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/karaokeforge/lyrsync/internal/observe"
	"github.com/karaokeforge/lyrsync/pkg/lyrics"
)

const (
	defaultBaseURL   = "https://lrclib.net/api"
	defaultUserAgent = "lyrsync/1.0 (https://github.com/karaokeforge/lyrsync)"
	defaultTimeout   = 10 * time.Second
)

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient substitutes the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header. LRCLib asks integrators to send
// a descriptive one.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithCachedOnly restricts signature lookups to LRCLib's pre-indexed
// records (the /get-cached endpoint), which skips on-demand fetching on
// their side and responds faster.
func WithCachedOnly(cached bool) Option {
	return func(c *Client) {
		c.cachedOnly = cached
	}
}

// Client is an LRCLib API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	http       *http.Client
	cachedOnly bool
}

// New returns a ready-to-use [Client].
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Lookup implements [lyrics.Provider]. Every API interaction is counted
// under origin "remote" with its outcome; a caching decorator reports its
// own origin.
func (c *Client) Lookup(ctx context.Context, q lyrics.Query) (*lyrics.Lyrics, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rec, err := c.lookup(ctx, q)
	switch {
	case errors.Is(err, lyrics.ErrNotFound):
		observe.DefaultMetrics().RecordLyricsLookup(ctx, "miss", "remote")
	case err != nil:
		observe.DefaultMetrics().RecordLyricsLookup(ctx, "error", "remote")
	default:
		observe.DefaultMetrics().RecordLyricsLookup(ctx, "hit", "remote")
	}
	return rec, err
}

func (c *Client) lookup(ctx context.Context, q lyrics.Query) (*lyrics.Lyrics, error) {
	if q.DurationSec > 0 {
		rec, err := c.getBySignature(ctx, q)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, lyrics.ErrNotFound) {
			return nil, err
		}
		// Signature miss; the search endpoint may still know the song.
	}
	return c.search(ctx, q)
}

func (c *Client) getBySignature(ctx context.Context, q lyrics.Query) (*lyrics.Lyrics, error) {
	endpoint := "/get"
	if c.cachedOnly {
		endpoint = "/get-cached"
	}

	params := url.Values{
		"artist_name": {q.ArtistName},
		"track_name":  {q.TrackName},
		"duration":    {strconv.Itoa(q.DurationSec)},
	}
	if q.AlbumName != "" {
		params.Set("album_name", q.AlbumName)
	}

	var rec lyrics.Lyrics
	if err := c.getJSON(ctx, endpoint, params, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) search(ctx context.Context, q lyrics.Query) (*lyrics.Lyrics, error) {
	params := url.Values{
		"artist_name": {q.ArtistName},
		"track_name":  {q.TrackName},
	}

	var results []lyrics.Lyrics
	if err := c.getJSON(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, lyrics.ErrNotFound
	}
	return &results[0], nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("lrclib: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("lrclib: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return lyrics.ErrNotFound
	default:
		return fmt.Errorf("lrclib: %s returned status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("lrclib: decode %s response: %w", endpoint, err)
	}
	return nil
}
