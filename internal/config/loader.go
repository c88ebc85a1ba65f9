package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, decodes, and validates the YAML config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Lyrics.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("lyrics.timeout_seconds must not be negative, got %d", cfg.Lyrics.TimeoutSeconds))
	}
	if rc := cfg.Lyrics.Redis; rc != nil {
		if rc.Addr == "" {
			errs = append(errs, errors.New("lyrics.redis.addr is required when lyrics.redis is set"))
		}
		if rc.TTLMinutes < 0 {
			errs = append(errs, fmt.Errorf("lyrics.redis.ttl_minutes must not be negative, got %d", rc.TTLMinutes))
		}
	}

	if cfg.Reconcile.Mode != "" && !cfg.Reconcile.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("reconcile.mode %q is invalid; valid values: word-correction, hybrid, full-sync", cfg.Reconcile.Mode))
	}
	if cfg.Reconcile.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("reconcile.max_tokens must not be negative, got %d", cfg.Reconcile.MaxTokens))
	}
	if cfg.Reconcile.WordSpanMS < 0 {
		errs = append(errs, fmt.Errorf("reconcile.word_span_ms must not be negative, got %d", cfg.Reconcile.WordSpanMS))
	}

	if t := cfg.Corrector.ConfidenceThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("corrector.confidence_threshold %g is outside [0, 1]", t))
	}
	for i, rule := range cfg.Corrector.Rules {
		if rule.Match == "" {
			errs = append(errs, fmt.Errorf("corrector.rules[%d].match is required", i))
		}
		if rule.Confidence < 0 || rule.Confidence > 1 {
			errs = append(errs, fmt.Errorf("corrector.rules[%d].confidence %g is outside [0, 1]", i, rule.Confidence))
		}
	}

	if cfg.Hotwords.Max < 0 {
		errs = append(errs, fmt.Errorf("hotwords.max must not be negative, got %d", cfg.Hotwords.Max))
	}

	return errors.Join(errs...)
}
