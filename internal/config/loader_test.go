package config_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/karaokeforge/lyrsync/internal/config"
	"github.com/karaokeforge/lyrsync/internal/reconcile"
)

const validYAML = `
server:
  metrics_addr: ":9090"
  log_level: debug
lyrics:
  user_agent: "lyrsync test"
  timeout_seconds: 5
  cached_only: true
  redis:
    addr: "localhost:6379"
    ttl_minutes: 60
reconcile:
  mode: full-sync
  max_tokens: 2000
  word_span_ms: 400
corrector:
  enabled: true
  confidence_threshold: 0.8
  rules:
    - id: example
      match: 'janela e mone'
      replacement: 'Janelle Monáe'
      context_before: som
      confidence: 0.9
hotwords:
  max: 25
`

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q; want debug", cfg.Server.LogLevel)
	}
	if cfg.Reconcile.Mode != reconcile.ModeFullSync {
		t.Errorf("Mode = %q; want full-sync", cfg.Reconcile.Mode)
	}
	if cfg.Lyrics.Redis == nil || cfg.Lyrics.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis = %+v; want addr localhost:6379", cfg.Lyrics.Redis)
	}
	if len(cfg.Corrector.Rules) != 1 || cfg.Corrector.Rules[0].ID != "example" {
		t.Errorf("Rules = %+v", cfg.Corrector.Rules)
	}
	if cfg.Hotwords.Max != 25 {
		t.Errorf("Hotwords.Max = %d; want 25", cfg.Hotwords.Max)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("server:\n  listen_addr: ':8080'\n"))
	if err == nil {
		t.Fatal("LoadFromReader accepted an unknown field")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Server.LogLevel = "verbose"
	cfg.Reconcile.Mode = "sync-everything"
	cfg.Reconcile.MaxTokens = -1
	cfg.Corrector.ConfidenceThreshold = 1.5
	cfg.Lyrics.Redis = &config.RedisConfig{TTLMinutes: -5}

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, want := range []string{
		"server.log_level",
		"reconcile.mode",
		"reconcile.max_tokens",
		"corrector.confidence_threshold",
		"lyrics.redis.addr",
		"lyrics.redis.ttl_minutes",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	if cfg.Reconcile.Mode != reconcile.ModeHybrid {
		t.Errorf("default mode = %q; want hybrid", cfg.Reconcile.Mode)
	}
	if !cfg.Corrector.Enabled {
		t.Error("corrector disabled by default")
	}
}

func TestLogLevel_Level(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   config.LogLevel
		want slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := tc.in.Level(); got != tc.want {
			t.Errorf("LogLevel(%q).Level() = %v; want %v", tc.in, got, tc.want)
		}
	}
}
