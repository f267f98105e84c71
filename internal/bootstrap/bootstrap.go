// SPDX-License-Identifier: MIT

// Package bootstrap turns a resolved AppConfig into a ready Gotenberg client.
//
// Connection details are resolved in order: details supplied by the caller,
// then gotenberg.baseUrl, then docker compose discovery when enabled. A client
// is only built when details exist and the caller did not bring its own.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ManuGH/gotenberg-client/internal/cache"
	"github.com/ManuGH/gotenberg-client/internal/config"
	"github.com/ManuGH/gotenberg-client/internal/connection"
	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	xglog "github.com/ManuGH/gotenberg-client/internal/log"
	"github.com/ManuGH/gotenberg-client/internal/platform/httpx"
	"github.com/ManuGH/gotenberg-client/internal/ratelimit"
	"github.com/ManuGH/gotenberg-client/internal/telemetry"
	"github.com/ManuGH/gotenberg-client/internal/version"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned when no connection details could be resolved
// and the caller did not supply a client.
var ErrNotConfigured = errors.New("gotenberg connection not configured")

const memoryCacheSweep = time.Minute

// Options carries caller-supplied overrides.
type Options struct {
	// Details skips resolution from config when set.
	Details connection.Details
	// Client is used as-is; no client is built.
	Client *gotenberg.Client
	// ComposeRunner replaces the docker compose CLI runner.
	ComposeRunner connection.ComposeRunner
	// HTTPClient replaces the hardened client built from gotenberg.timeout.
	HTTPClient *http.Client
	// LogOutput overrides the log destination (defaults to stderr).
	LogOutput io.Writer
}

// Runtime owns everything New built and must be closed.
type Runtime struct {
	Config    config.AppConfig
	Details   connection.Details
	Client    *gotenberg.Client
	Cache     cache.Cache
	Telemetry *telemetry.Provider

	logger  zerolog.Logger
	closers []func(context.Context) error
}

// New configures logging and tracing, resolves connection details and builds
// the client with its breaker, limiter and cache.
func New(ctx context.Context, cfg config.AppConfig, opts Options) (*Runtime, error) {
	logCfg := xglog.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.Log.Service,
		Version: version.Version,
	}
	if opts.LogOutput != nil {
		logCfg.Output = opts.LogOutput
	}
	xglog.Configure(logCfg)
	logger := xglog.WithComponent("bootstrap")

	rt := &Runtime{Config: cfg, logger: logger}

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: version.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.Sampling,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}
	rt.Telemetry = provider
	rt.closers = append(rt.closers, provider.Shutdown)
	if cfg.Telemetry.Enabled {
		logger.Info().
			Str("endpoint", cfg.Telemetry.Endpoint).
			Float64("sampling_rate", cfg.Telemetry.Sampling).
			Msg("telemetry initialized")
	}

	if opts.Client != nil {
		rt.Client = opts.Client
		rt.Details = opts.Details
		logger.Debug().Msg("using caller supplied client")
		return rt, nil
	}

	details, err := ResolveDetails(ctx, cfg, opts.Details, opts.ComposeRunner)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.Details = details

	store, err := OpenCache(ctx, cfg.Cache)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.Cache = store
	rt.closers = append(rt.closers, func(context.Context) error {
		st := store.Stats()
		logger.Debug().
			Int64("hits", st.Hits).
			Int64("misses", st.Misses).
			Int64("sets", st.Sets).
			Msg("cache closed")
		return store.Close()
	})

	client, err := gotenberg.New(details.BaseURL(), clientOptions(cfg, opts.HTTPClient, store)...)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("build client: %w", err)
	}
	rt.Client = client
	rt.closers = append(rt.closers, func(context.Context) error { return client.Close() })

	logger.Info().
		Str(xglog.FieldBaseURL, config.MaskURL(details.BaseURL())).
		Str("cache", cfg.Cache.Backend).
		Msg("gotenberg client ready")
	return rt, nil
}

// ResolveDetails applies the first two wiring rules. Supplied details win,
// then gotenberg.baseUrl, then compose discovery.
func ResolveDetails(ctx context.Context, cfg config.AppConfig, supplied connection.Details, runner connection.ComposeRunner) (connection.Details, error) {
	if supplied != nil {
		return supplied, nil
	}
	if cfg.Gotenberg.BaseURL != "" {
		d, err := connection.NewPropertiesDetails(cfg.Gotenberg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("gotenberg.baseUrl: %w", err)
		}
		return d, nil
	}
	if !cfg.Compose.Enabled {
		return nil, ErrNotConfigured
	}

	if runner == nil {
		runner = connection.ExecComposeRunner{File: cfg.Compose.File, Project: cfg.Compose.Project}
	}
	d, err := connection.DiscoverCompose(ctx, runner)
	if err != nil {
		return nil, fmt.Errorf("%w: compose discovery: %w", ErrNotConfigured, err)
	}
	return d, nil
}

func clientOptions(cfg config.AppConfig, hc *http.Client, store cache.Cache) []gotenberg.Option {
	g := cfg.Gotenberg
	logger := xglog.WithComponent("gotenberg")

	if hc == nil {
		hc = httpx.NewClient(g.Timeout)
	} else {
		own := *hc
		hc = &own
	}
	hc.Transport = telemetry.InstrumentTransport(hc.Transport)

	limits := ratelimit.Config{}
	if g.RateLimit.Rate > 0 {
		limits = ratelimit.DefaultConfig()
		limits.GlobalRate = rate.Limit(g.RateLimit.Rate)
		limits.GlobalBurst = g.RateLimit.Burst
	}

	opts := []gotenberg.Option{
		gotenberg.WithHTTPClient(hc),
		gotenberg.WithLogger(logger),
		gotenberg.WithBreaker(gotenberg.NewCircuitBreaker(g.Breaker.Threshold, g.Breaker.Reset, logger)),
		gotenberg.WithLimiter(ratelimit.New(limits)),
		gotenberg.WithNoWait(g.RateLimit.NoWait),
		gotenberg.WithRetry(gotenberg.RetryPolicy{
			MaxAttempts: g.Retry.Max,
			BaseDelay:   g.Retry.Backoff,
			MaxDelay:    gotenberg.DefaultRetryPolicy().MaxDelay,
		}),
	}
	if g.Username != "" {
		opts = append(opts, gotenberg.WithBasicAuth(g.Username, g.Password))
	}
	if cfg.Cache.Backend != config.CacheNone {
		opts = append(opts, gotenberg.WithCache(store, cfg.Cache.TTL))
	}
	return opts
}

// OpenCache builds the store for the configured backend. Backend none
// yields a cache that never holds anything.
func OpenCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheMemory:
		return cache.NewMemoryCache(memoryCacheSweep), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, xglog.WithComponent("cache"))
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	default:
		return cache.NewNoOpCache(), nil
	}
}

// Close releases resources in reverse order of creation.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
