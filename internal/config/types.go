// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// AppConfig is the resolved configuration after defaults, the YAML file and
// the environment have been applied.
type AppConfig struct {
	Gotenberg GotenbergConfig `yaml:"gotenberg"`
	Compose   ComposeConfig   `yaml:"compose"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Cache     CacheConfig     `yaml:"cache"`
}

// GotenbergConfig describes how to reach and talk to the Gotenberg server.
type GotenbergConfig struct {
	BaseURL   string          `yaml:"baseUrl"`
	Timeout   time.Duration   `yaml:"timeout"`
	Username  string          `yaml:"username"`
	Password  string          `yaml:"password"`
	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Breaker   BreakerConfig   `yaml:"breaker"`
}

type RetryConfig struct {
	Max     int           `yaml:"max"`
	Backoff time.Duration `yaml:"backoff"`
}

// RateLimitConfig caps outbound requests. Rate 0 disables limiting.
// With NoWait a request that finds the bucket empty fails immediately.
type RateLimitConfig struct {
	Rate   float64 `yaml:"rate"`
	Burst  int     `yaml:"burst"`
	NoWait bool    `yaml:"noWait"`
}

type BreakerConfig struct {
	Threshold int           `yaml:"threshold"`
	Reset     time.Duration `yaml:"reset"`
}

// ComposeConfig enables discovery of a Gotenberg service started by docker compose.
type ComposeConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
	Project string `yaml:"project"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Service string `yaml:"service"`
}

type TelemetryConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Exporter string  `yaml:"exporter"`
	Endpoint string  `yaml:"endpoint"`
	Sampling float64 `yaml:"sampling"`
}

type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() AppConfig {
	return AppConfig{
		Gotenberg: GotenbergConfig{
			Timeout: 60 * time.Second,
			Retry: RetryConfig{
				Max:     3,
				Backoff: 250 * time.Millisecond,
			},
			RateLimit: RateLimitConfig{Rate: 20, Burst: 40},
			Breaker: BreakerConfig{
				Threshold: 5,
				Reset:     30 * time.Second,
			},
		},
		Compose: ComposeConfig{
			File: "compose.yaml",
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "json",
			Service: "gotenbergctl",
		},
		Telemetry: TelemetryConfig{
			Exporter: "grpc",
			Endpoint: "localhost:4317",
			Sampling: 1.0,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     10 * time.Minute,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
	}
}
