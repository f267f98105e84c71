// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader resolves an AppConfig with precedence ENV > file > defaults.
type Loader struct {
	configPath string
	// ConsumedEnvKeys records which environment variables were set during Load.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader; an empty path skips the file layer.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Load applies defaults, the config file and the environment, then validates
// the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file on top of cfg. Keys absent from the file
// keep their current values.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	g := &cfg.Gotenberg
	g.BaseURL = l.envString("GOTENBERG_BASE_URL", g.BaseURL)
	g.Timeout = l.envDuration("GOTENBERG_TIMEOUT", g.Timeout)
	g.Username = l.envString("GOTENBERG_USERNAME", g.Username)
	g.Password = l.envString("GOTENBERG_PASSWORD", g.Password)
	g.Retry.Max = l.envInt("GOTENBERG_RETRY_MAX", g.Retry.Max)
	g.Retry.Backoff = l.envDuration("GOTENBERG_RETRY_BACKOFF", g.Retry.Backoff)
	g.RateLimit.Rate = l.envFloat("GOTENBERG_RATE_LIMIT", g.RateLimit.Rate)
	g.RateLimit.Burst = l.envInt("GOTENBERG_RATE_BURST", g.RateLimit.Burst)
	g.RateLimit.NoWait = l.envBool("GOTENBERG_RATE_NO_WAIT", g.RateLimit.NoWait)
	g.Breaker.Threshold = l.envInt("GOTENBERG_BREAKER_THRESHOLD", g.Breaker.Threshold)
	g.Breaker.Reset = l.envDuration("GOTENBERG_BREAKER_RESET", g.Breaker.Reset)

	cfg.Compose.Enabled = l.envBool("GOTENBERG_COMPOSE_ENABLED", cfg.Compose.Enabled)
	cfg.Compose.File = l.envString("GOTENBERG_COMPOSE_FILE", cfg.Compose.File)
	cfg.Compose.Project = l.envString("GOTENBERG_COMPOSE_PROJECT", cfg.Compose.Project)

	cfg.Log.Level = l.envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = l.envString("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Service = l.envString("LOG_SERVICE", cfg.Log.Service)

	t := &cfg.Telemetry
	t.Enabled = l.envBool("GOTENBERG_TRACING_ENABLED", t.Enabled)
	t.Exporter = l.envString("GOTENBERG_TRACING_EXPORTER", t.Exporter)
	t.Endpoint = l.envString("GOTENBERG_TRACING_ENDPOINT", t.Endpoint)
	t.Sampling = l.envFloat("GOTENBERG_TRACING_SAMPLING", t.Sampling)

	c := &cfg.Cache
	c.Backend = strings.ToLower(l.envString("GOTENBERG_CACHE_BACKEND", c.Backend))
	c.TTL = l.envDuration("GOTENBERG_CACHE_TTL", c.TTL)
	c.Redis.Addr = l.envString("GOTENBERG_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = l.envString("GOTENBERG_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = l.envInt("GOTENBERG_REDIS_DB", c.Redis.DB)
}

func (l *Loader) consumed(key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		l.ConsumedEnvKeys[key] = struct{}{}
	}
}

func (l *Loader) envString(key, def string) string {
	l.consumed(key)
	return ParseString(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.consumed(key)
	return ParseInt(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.consumed(key)
	return ParseFloat(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.consumed(key)
	return ParseBool(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.consumed(key)
	return ParseDuration(key, def)
}
