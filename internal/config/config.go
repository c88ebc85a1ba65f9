// Package config provides the configuration schema and loader for the
// lyrsync reconciliation service.
package config

import (
	"log/slog"

	"github.com/karaokeforge/lyrsync/internal/pattern"
	"github.com/karaokeforge/lyrsync/internal/reconcile"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l onto the corresponding [slog.Level]. Unrecognised values map
// to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the root configuration structure for lyrsync.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Lyrics    LyricsConfig    `yaml:"lyrics"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Corrector CorrectorConfig `yaml:"corrector"`
	Hotwords  HotwordsConfig  `yaml:"hotwords"`
}

// ServerConfig holds observability and logging settings.
type ServerConfig struct {
	// MetricsAddr is the TCP address the Prometheus /metrics endpoint
	// listens on (e.g., ":9090"). Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// LyricsConfig configures the reference-lyric provider.
type LyricsConfig struct {
	// BaseURL overrides the lyric service's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// UserAgent identifies this client to the lyric service, which asks
	// integrators to set a descriptive one.
	UserAgent string `yaml:"user_agent"`

	// TimeoutSeconds bounds each lookup request. Default: 10.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// CachedOnly restricts lookups to the service's pre-indexed records,
	// skipping on-demand fetching on its side.
	CachedOnly bool `yaml:"cached_only"`

	// Redis, when configured, caches lookups so repeat runs over the same
	// song skip the network entirely.
	Redis *RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the lyric lookup cache.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string `yaml:"addr"`

	// Password authenticates against the server; empty for none.
	Password string `yaml:"password"`

	// DB selects the Redis logical database.
	DB int `yaml:"db"`

	// TTLMinutes is how long cached lyrics stay valid. Default: 1440 (24h).
	TTLMinutes int `yaml:"ttl_minutes"`
}

// ReconcileConfig selects and tunes the reconciliation strategy.
type ReconcileConfig struct {
	// Mode is one of "word-correction", "hybrid", "full-sync".
	Mode reconcile.Mode `yaml:"mode"`

	// MaxTokens is the per-sequence token ceiling. 0 keeps the default.
	MaxTokens int `yaml:"max_tokens"`

	// WordSpanMS is the synthesized word duration for full-sync output, in
	// milliseconds. 0 keeps the default of 500.
	WordSpanMS int `yaml:"word_span_ms"`
}

// CorrectorConfig tunes the pattern correction stage.
type CorrectorConfig struct {
	// Enabled toggles the pattern stage. The alignment stage always runs.
	Enabled bool `yaml:"enabled"`

	// ConfidenceThreshold gates which patterns may fire. 0 keeps the
	// default of 0.7.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// Rules are user-supplied patterns applied after the built-in ones.
	Rules []pattern.Pattern `yaml:"rules"`
}

// HotwordsConfig tunes hotword extraction from the reference lyric.
type HotwordsConfig struct {
	// Max caps the number of extracted hotwords. 0 keeps the default of 50.
	Max int `yaml:"max"`
}

// Default returns the configuration used when no file is given: hybrid
// reconciliation with the built-in corrector rules and no cache.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			LogLevel: LogInfo,
		},
		Lyrics: LyricsConfig{
			TimeoutSeconds: 10,
		},
		Reconcile: ReconcileConfig{
			Mode: reconcile.ModeHybrid,
		},
		Corrector: CorrectorConfig{
			Enabled: true,
		},
	}
}
