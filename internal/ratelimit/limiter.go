// SPDX-License-Identifier: MIT

// Package ratelimit throttles outbound Gotenberg requests.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/gotenberg-client/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// ErrLimited is returned when a non-blocking request finds a bucket empty.
var ErrLimited = errors.New("rate limit exceeded")

var (
	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gotenberg",
			Name:      "ratelimit_exceeded_total",
			Help:      "Total non-blocking rate limit rejections",
		},
		[]string{"limit_type", "engine"},
	)
)

// Engines served by a Gotenberg instance. Chromium and LibreOffice are far
// more expensive than the PDF engines, so they get their own buckets.
const (
	EngineChromium    = "chromium"
	EngineLibreOffice = "libreoffice"
	EnginePDF         = "pdfengines"
	EngineSystem      = "system"
)

// Config holds rate limiting configuration
type Config struct {
	// Global limits; a zero GlobalRate disables limiting entirely.
	GlobalRate  rate.Limit // requests per second
	GlobalBurst int        // max burst size

	// Per-engine limits
	EngineRates map[string]rate.Limit
	EngineBurst map[string]int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		GlobalRate:  20,
		GlobalBurst: 40,

		EngineRates: map[string]rate.Limit{
			EngineChromium:    6,
			EngineLibreOffice: 4,
			EnginePDF:         15,
		},
		EngineBurst: map[string]int{
			EngineChromium:    12,
			EngineLibreOffice: 8,
			EnginePDF:         30,
		},
	}
}

// Limiter manages outbound rate limiting.
type Limiter struct {
	global    *rate.Limiter
	perEngine map[string]*rate.Limiter
	mu        sync.RWMutex
}

// New creates a new rate limiter with the given config
func New(config Config) *Limiter {
	l := &Limiter{
		perEngine: make(map[string]*rate.Limiter),
	}
	if config.GlobalRate > 0 {
		burst := config.GlobalBurst
		if burst <= 0 {
			burst = 1
		}
		l.global = rate.NewLimiter(config.GlobalRate, burst)
	}

	for engine, engineRate := range config.EngineRates {
		if engineRate <= 0 {
			continue
		}
		burst := config.EngineBurst[engine]
		if burst <= 0 {
			burst = 1
		}
		l.perEngine[engine] = rate.NewLimiter(engineRate, burst)
	}

	return l
}

// Allow reports whether a request may be sent right now without waiting.
func (l *Limiter) Allow(engine string) bool {
	if l == nil {
		return true
	}
	if l.global != nil && !l.global.Allow() {
		rateLimitExceeded.WithLabelValues("global", engine).Inc()
		return false
	}
	if el := l.engineLimiter(engine); el != nil && !el.Allow() {
		rateLimitExceeded.WithLabelValues("per_engine", engine).Inc()
		return false
	}
	return true
}

// Wait blocks until both the global and the engine bucket admit a request,
// or ctx is done.
func (l *Limiter) Wait(ctx context.Context, engine string) error {
	if l == nil {
		return nil
	}
	start := time.Now()
	defer func() { metrics.ObserveRateLimitWait(time.Since(start)) }()

	if l.global != nil {
		if err := l.global.Wait(ctx); err != nil {
			return fmt.Errorf("global rate limit: %w", err)
		}
	}
	if el := l.engineLimiter(engine); el != nil {
		if err := el.Wait(ctx); err != nil {
			return fmt.Errorf("%s rate limit: %w", engine, err)
		}
	}
	return nil
}

func (l *Limiter) engineLimiter(engine string) *rate.Limiter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.perEngine[engine]
}
