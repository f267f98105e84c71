// SPDX-License-Identifier: MIT

package bootstrap

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/ManuGH/gotenberg-client/internal/cache"
	"github.com/ManuGH/gotenberg-client/internal/config"
	"github.com/ManuGH/gotenberg-client/internal/connection"
	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	"github.com/ManuGH/gotenberg-client/internal/gotenberg/gotenbergtest"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	out   []byte
	err   error
	calls int
}

func (r *stubRunner) PS(context.Context) ([]byte, error) {
	r.calls++
	return r.out, r.err
}

func testConfig() config.AppConfig {
	cfg := config.Defaults()
	cfg.Log.Level = "error"
	return cfg
}

func newRuntime(t *testing.T, cfg config.AppConfig, opts Options) *Runtime {
	t.Helper()
	opts.LogOutput = io.Discard
	rt, err := New(context.Background(), cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

func TestResolveDetails_Precedence(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Gotenberg.BaseURL = "http://from-config:3000/"
	cfg.Compose.Enabled = true

	supplied, err := connection.NewPropertiesDetails("http://supplied:3000")
	require.NoError(t, err)
	runner := &stubRunner{}

	d, err := ResolveDetails(ctx, cfg, supplied, runner)
	require.NoError(t, err)
	assert.Equal(t, "http://supplied:3000", d.BaseURL())

	d, err = ResolveDetails(ctx, cfg, nil, runner)
	require.NoError(t, err)
	assert.Equal(t, "http://from-config:3000", d.BaseURL())
	assert.Zero(t, runner.calls, "compose is not consulted when a base URL is configured")
}

func TestResolveDetails_Compose(t *testing.T) {
	cfg := testConfig()
	cfg.Compose.Enabled = true
	runner := &stubRunner{out: []byte(`{"Service":"pdf","Image":"gotenberg/gotenberg:8","State":"running","Publishers":[{"URL":"0.0.0.0","TargetPort":3000,"PublishedPort":3100,"Protocol":"tcp"}]}`)}

	d, err := ResolveDetails(context.Background(), cfg, nil, runner)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3100", d.BaseURL())
	assert.Equal(t, 1, runner.calls)
}

func TestResolveDetails_NotConfigured(t *testing.T) {
	ctx := context.Background()

	_, err := ResolveDetails(ctx, testConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	cfg := testConfig()
	cfg.Compose.Enabled = true
	_, err = ResolveDetails(ctx, cfg, nil, &stubRunner{out: []byte("[]")})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, connection.ErrNoService)

	boom := errors.New("docker not installed")
	_, err = ResolveDetails(ctx, cfg, nil, &stubRunner{err: boom})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, boom)
}

func TestResolveDetails_InvalidBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.Gotenberg.BaseURL = "gotenberg:3000"
	_, err := ResolveDetails(context.Background(), cfg, nil, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}

func TestNew_NotConfigured(t *testing.T) {
	_, err := New(context.Background(), testConfig(), Options{LogOutput: io.Discard})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew_BuildsWorkingClient(t *testing.T) {
	srv := gotenbergtest.New(gotenbergtest.WithBasicAuth("api", "secret"))
	defer srv.Close()

	cfg := testConfig()
	cfg.Gotenberg.BaseURL = srv.URL
	cfg.Gotenberg.Username = "api"
	cfg.Gotenberg.Password = "secret"

	rt := newRuntime(t, cfg, Options{})
	require.NotNil(t, rt.Client)
	assert.Equal(t, srv.URL, rt.Details.BaseURL())
	assert.Equal(t, srv.URL, rt.Client.BaseURL())
	require.NotNil(t, rt.Cache, "memory cache is the default backend")

	v, err := rt.Client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gotenbergtest.DefaultVersion, v)

	res, err := rt.Client.ConvertHTMLString(context.Background(), "<h1>hi</h1>", nil)
	require.NoError(t, err)
	defer res.Close()
	assert.True(t, res.IsPDF())
}

func TestNew_CallerClientWins(t *testing.T) {
	own, err := gotenberg.New("http://caller-owned:3000")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Gotenberg.BaseURL = "http://ignored:3000"

	rt := newRuntime(t, cfg, Options{Client: own})
	assert.Same(t, own, rt.Client)
	assert.Nil(t, rt.Cache)
}

func TestNew_NoCacheBackend(t *testing.T) {
	srv := gotenbergtest.New()
	defer srv.Close()

	cfg := testConfig()
	cfg.Gotenberg.BaseURL = srv.URL
	cfg.Cache.Backend = config.CacheNone
	srv.SetMetadata(map[string]any{"Author": "Jane"})

	rt := newRuntime(t, cfg, Options{})
	require.NotNil(t, rt.Cache)

	for i := 0; i < 2; i++ {
		opts := gotenberg.NewMetadataOptions().File(gotenberg.FileFromBytes("a.pdf", gotenbergtest.MinimalPDF))
		_, err := rt.Client.ReadMetadata(context.Background(), opts)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, srv.Count(gotenberg.RouteReadMetadata))
	assert.Equal(t, cache.Stats{}, rt.Cache.Stats())
}

func TestNew_LeavesCallerHTTPClientUntouched(t *testing.T) {
	srv := gotenbergtest.New()
	defer srv.Close()

	cfg := testConfig()
	cfg.Gotenberg.BaseURL = srv.URL
	hc := &http.Client{Timeout: 5 * time.Second}

	for i := 0; i < 2; i++ {
		rt := newRuntime(t, cfg, Options{HTTPClient: hc})
		_, err := rt.Client.Version(context.Background())
		require.NoError(t, err)
	}
	assert.Nil(t, hc.Transport)
}

func TestOpenCache_Backends(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	for _, backend := range []string{config.CacheNone, config.CacheMemory, config.CacheRedis} {
		t.Run(backend, func(t *testing.T) {
			store, err := OpenCache(ctx, config.CacheConfig{
				Backend: backend,
				TTL:     time.Minute,
				Redis:   config.RedisConfig{Addr: mr.Addr()},
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			store.Set(ctx, "k", []byte("v"), time.Minute)
			_, found := store.Get(ctx, "k")
			assert.Equal(t, backend != config.CacheNone, found)
		})
	}
}

func TestNew_RedisCacheServesMetadata(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := gotenbergtest.New()
	defer srv.Close()
	srv.SetMetadata(map[string]any{"Author": "Jane"})

	cfg := testConfig()
	cfg.Gotenberg.BaseURL = srv.URL
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.Redis.Addr = mr.Addr()

	rt := newRuntime(t, cfg, Options{})
	require.NotNil(t, rt.Cache)

	read := func() gotenberg.Metadata {
		opts := gotenberg.NewMetadataOptions().File(gotenberg.FileFromBytes("a.pdf", gotenbergtest.MinimalPDF))
		md, err := rt.Client.ReadMetadata(context.Background(), opts)
		require.NoError(t, err)
		return md
	}

	first := read()
	second := read()
	assert.Equal(t, first, second)
	assert.Equal(t, "Jane", second["a.pdf"]["Author"])
	assert.Equal(t, 1, srv.Count(gotenberg.RouteReadMetadata), "second read is a cache hit")
	assert.NotEmpty(t, mr.Keys())
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.Gotenberg.BaseURL = "http://localhost:3000"
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.Redis.Addr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg, Options{LogOutput: io.Discard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis cache")
}

func TestRuntime_CloseIsIdempotent(t *testing.T) {
	srv := gotenbergtest.New()
	defer srv.Close()

	cfg := testConfig()
	cfg.Gotenberg.BaseURL = srv.URL

	rt, err := New(context.Background(), cfg, Options{LogOutput: io.Discard})
	require.NoError(t, err)
	require.NoError(t, rt.Close(context.Background()))
	require.NoError(t, rt.Close(context.Background()))
}
