// Package rediscache decorates a [lyrics.Provider] with a Redis lookup
// cache. Reconciling an album means hitting the same songs repeatedly;
// caching keeps repeat runs off the network.
//
// The cache degrades, never fails: any Redis error falls through to the
// inner provider and is logged at warn level. Negative results are not
// cached, so a song added to the lyric service becomes visible on the next
// run.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/karaokeforge/lyrsync/internal/observe"
	"github.com/karaokeforge/lyrsync/pkg/lyrics"
)

// DefaultTTL is how long cached lyric records stay valid.
const DefaultTTL = 24 * time.Hour

// Store is the slice of the Redis command surface the cache uses.
// Satisfied by [*redis.Client]; tests substitute a stub.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

var _ Store = (*redis.Client)(nil)

// Option configures a [Cache].
type Option func(*Cache)

// WithTTL overrides the cache entry lifetime. Default: [DefaultTTL].
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// Cache is a caching [lyrics.Provider] decorator. It is safe for concurrent
// use.
type Cache struct {
	inner lyrics.Provider
	rdb   Store
	ttl   time.Duration
}

// New wraps inner with a Redis cache.
func New(inner lyrics.Provider, rdb Store, opts ...Option) *Cache {
	c := &Cache{
		inner: inner,
		rdb:   rdb,
		ttl:   DefaultTTL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Key derives the cache key for a query. Casing is folded so "Pollo" and
// "pollo" share an entry; duration participates because LRCLib treats it as
// part of the song's identity.
func Key(q lyrics.Query) string {
	return fmt.Sprintf("lyrsync:lyrics:%s|%s|%s|%d",
		strings.ToLower(strings.TrimSpace(q.ArtistName)),
		strings.ToLower(strings.TrimSpace(q.TrackName)),
		strings.ToLower(strings.TrimSpace(q.AlbumName)),
		q.DurationSec,
	)
}

// Lookup implements [lyrics.Provider]. Hit/miss counters are recorded under
// origin "cache" only; the inner provider owns its own origin's counts.
func (c *Cache) Lookup(ctx context.Context, q lyrics.Query) (*lyrics.Lyrics, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	key := Key(q)
	log := observe.Logger(ctx)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec lyrics.Lyrics
		if jsonErr := json.Unmarshal(raw, &rec); jsonErr == nil {
			observe.DefaultMetrics().RecordLyricsLookup(ctx, "hit", "cache")
			return &rec, nil
		}
		// Unreadable entry, refetch and overwrite below.
		log.Warn("discarding corrupt lyrics cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		log.Warn("lyrics cache read failed", "key", key, "error", err)
	}

	rec, err := c.inner.Lookup(ctx, q)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(rec); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Warn("lyrics cache write failed", "key", key, "error", err)
		}
	}
	observe.DefaultMetrics().RecordLyricsLookup(ctx, "miss", "cache")
	return rec, nil
}
