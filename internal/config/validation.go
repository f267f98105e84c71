// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks cross-field constraints. All problems are reported
// together, each wrapped with ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if cfg.Gotenberg.BaseURL != "" {
		u, err := url.Parse(cfg.Gotenberg.BaseURL)
		switch {
		case err != nil:
			add("gotenberg.baseUrl: %v", err)
		case u.Scheme != "http" && u.Scheme != "https":
			add("gotenberg.baseUrl: scheme must be http or https, got %q", u.Scheme)
		case u.Host == "":
			add("gotenberg.baseUrl: missing host")
		}
	}
	if cfg.Gotenberg.Timeout <= 0 {
		add("gotenberg.timeout must be > 0")
	}
	if cfg.Gotenberg.Retry.Max < 1 {
		add("gotenberg.retry.max must be >= 1")
	}
	if cfg.Gotenberg.Retry.Backoff <= 0 {
		add("gotenberg.retry.backoff must be > 0")
	}
	if cfg.Gotenberg.RateLimit.Rate < 0 {
		add("gotenberg.rateLimit.rate must be >= 0")
	}
	if cfg.Gotenberg.RateLimit.Rate > 0 && cfg.Gotenberg.RateLimit.Burst < 1 {
		add("gotenberg.rateLimit.burst must be >= 1 when a rate is set")
	}
	if cfg.Gotenberg.Breaker.Threshold < 1 {
		add("gotenberg.breaker.threshold must be >= 1")
	}
	if cfg.Gotenberg.Breaker.Reset <= 0 {
		add("gotenberg.breaker.reset must be > 0")
	}

	if cfg.Compose.Enabled && cfg.Compose.File == "" {
		add("compose.file is required when compose discovery is enabled")
	}

	switch cfg.Log.Format {
	case "", "json", "console":
	default:
		add("log.format: unsupported %q", cfg.Log.Format)
	}

	if cfg.Telemetry.Exporter != "grpc" && cfg.Telemetry.Exporter != "http" {
		add("telemetry.exporter must be grpc or http, got %q", cfg.Telemetry.Exporter)
	}
	if cfg.Telemetry.Sampling < 0 || cfg.Telemetry.Sampling > 1 {
		add("telemetry.sampling must be within [0,1], got %v", cfg.Telemetry.Sampling)
	}

	switch cfg.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if cfg.Cache.Redis.Addr == "" {
			add("cache.redis.addr is required for the redis backend")
		}
	default:
		add("cache.backend must be none, memory or redis, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend != CacheNone && cfg.Cache.TTL <= 0 {
		add("cache.ttl must be > 0")
	}

	return errors.Join(errs...)
}
