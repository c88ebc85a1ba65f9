// Command lyrsync reconciles a timestamped speech-recognition transcript
// against the song's reference lyric and writes the corrected result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/karaokeforge/lyrsync/internal/app"
	"github.com/karaokeforge/lyrsync/internal/config"
	"github.com/karaokeforge/lyrsync/internal/observe"
	"github.com/karaokeforge/lyrsync/internal/reconcile"
	"github.com/karaokeforge/lyrsync/pkg/asr"
	"github.com/karaokeforge/lyrsync/pkg/lyrics"
	"github.com/karaokeforge/lyrsync/pkg/lyrics/lrclib"
	"github.com/karaokeforge/lyrsync/pkg/lyrics/rediscache"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	transcriptPath := flag.String("transcript", "", "path to the recogniser transcript JSON (required)")
	artist := flag.String("artist", "", "artist name for the lyric lookup (required)")
	track := flag.String("track", "", "track name for the lyric lookup (required)")
	album := flag.String("album", "", "album name (optional, sharpens the lookup)")
	duration := flag.Int("duration", 0, "track duration in seconds (optional, sharpens the lookup)")
	mode := flag.String("mode", "", "reconciliation mode: word-correction, hybrid, full-sync (overrides config)")
	outPath := flag.String("out", "", "output file; stdout when empty")
	flag.Parse()

	if *transcriptPath == "" || *artist == "" || *track == "" {
		fmt.Fprintln(os.Stderr, "lyrsync: -transcript, -artist, and -track are required")
		flag.Usage()
		return 2
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lyrsync: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *mode != "" {
		cfg.Reconcile.Mode = reconcile.Mode(*mode)
		if !cfg.Reconcile.Mode.IsValid() {
			fmt.Fprintf(os.Stderr, "lyrsync: invalid mode %q\n", *mode)
			return 2
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "lyrsync"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	if cfg.Server.MetricsAddr != "" {
		go serveMetrics(cfg.Server.MetricsAddr)
	}

	// ── Lyric provider ────────────────────────────────────────────────────────
	provider := buildProvider(cfg)

	pipeline, err := app.New(cfg, provider)
	if err != nil {
		slog.Error("failed to initialise pipeline", "err", err)
		return 1
	}

	// ── Load transcript and run ───────────────────────────────────────────────
	transcript, err := asr.Load(*transcriptPath)
	if err != nil {
		slog.Error("failed to load transcript", "err", err)
		return 1
	}

	job := app.Job{
		Name:       *artist + " - " + *track,
		Transcript: transcript,
		Query: lyrics.Query{
			ArtistName:  *artist,
			TrackName:   *track,
			AlbumName:   *album,
			DurationSec: *duration,
		},
	}

	outcome, err := pipeline.Run(ctx, job)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("interrupted")
			return 1
		}
		slog.Error("reconciliation failed", "err", err)
		return 1
	}

	if err := writeOutcome(outcome, *outPath); err != nil {
		slog.Error("failed to write output", "err", err)
		return 1
	}
	return 0
}

// buildProvider wires the LRCLib client, optionally wrapped in a Redis cache.
func buildProvider(cfg *config.Config) lyrics.Provider {
	var opts []lrclib.Option
	if cfg.Lyrics.BaseURL != "" {
		opts = append(opts, lrclib.WithBaseURL(cfg.Lyrics.BaseURL))
	}
	if cfg.Lyrics.UserAgent != "" {
		opts = append(opts, lrclib.WithUserAgent(cfg.Lyrics.UserAgent))
	}
	if cfg.Lyrics.TimeoutSeconds > 0 {
		opts = append(opts, lrclib.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Lyrics.TimeoutSeconds) * time.Second,
		}))
	}
	if cfg.Lyrics.CachedOnly {
		opts = append(opts, lrclib.WithCachedOnly(true))
	}

	var provider lyrics.Provider = lrclib.New(opts...)

	if rc := cfg.Lyrics.Redis; rc != nil {
		rdb := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		var cacheOpts []rediscache.Option
		if rc.TTLMinutes > 0 {
			cacheOpts = append(cacheOpts, rediscache.WithTTL(time.Duration(rc.TTLMinutes)*time.Minute))
		}
		provider = rediscache.New(provider, rdb, cacheOpts...)
		slog.Info("lyric cache enabled", "addr", rc.Addr)
	}
	return provider
}

// serveMetrics exposes the Prometheus bridge on addr.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics endpoint stopped", "err", err)
	}
}

// writeOutcome marshals the outcome as indented JSON to path or stdout.
func writeOutcome(outcome *app.Outcome, path string) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level.Level(),
	}))
}
