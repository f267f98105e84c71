package gotenberg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/gotenberg-client/internal/cache"
	xglog "github.com/ManuGH/gotenberg-client/internal/log"
	"github.com/ManuGH/gotenberg-client/internal/metrics"
	"github.com/ManuGH/gotenberg-client/internal/platform/httpx"
	"github.com/ManuGH/gotenberg-client/internal/ratelimit"
	"github.com/ManuGH/gotenberg-client/internal/resilience"
	"github.com/ManuGH/gotenberg-client/internal/telemetry"
	"github.com/ManuGH/gotenberg-client/internal/version"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RetryPolicy controls retries of transport failures, 429 and 503.
// MaxAttempts counts the first attempt; 1 disables retries.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns three attempts with a 250ms base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// backoff returns the delay before retry n (1-based) with up to 20% jitter.
func (p RetryPolicy) backoff(n int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < n && d < p.MaxDelay; i++ {
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d <= 0 {
		return 0
	}
	// #nosec G404 -- jitter only
	return d - time.Duration(rand.Int64N(int64(d)/5+1))
}

// Client talks to one Gotenberg instance. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	username  string
	password  string
	breaker   *resilience.CircuitBreaker
	limiter   *ratelimit.Limiter
	noWait    bool
	cache     cache.Cache
	cacheTTL  time.Duration
	retry     RetryPolicy
	logger    zerolog.Logger
	userAgent string
	newTrace  func() string
	tracer    trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default hardened client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBasicAuth sends credentials on every request, for Gotenberg started
// with --api-enable-basic-auth.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithBreaker replaces the default circuit breaker; nil disables it.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// WithLimiter throttles requests before they are sent.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithNoWait makes a throttled request fail with ErrTooManyRequests instead
// of waiting for a token.
func WithNoWait(v bool) Option {
	return func(c *Client) { c.noWait = v }
}

// WithCache caches metadata reads for ttl.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithRetry replaces the default retry policy.
func WithRetry(p RetryPolicy) Option {
	return func(c *Client) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		c.retry = p
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTraceGenerator sets how Gotenberg-Trace values are generated for
// requests that do not carry one.
func WithTraceGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newTrace = fn
		}
	}
}

// NewCircuitBreaker returns a breaker that only counts Gotenberg-side
// failures (5xx, transport errors) and logs its transitions.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration, logger zerolog.Logger) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker("gotenberg", threshold, resetTimeout,
		resilience.WithClassifier(breakerOutcome),
		resilience.WithTransitionHook(func(from, to resilience.State) {
			ev := logger.Info()
			if to == resilience.StateOpen {
				ev = logger.Warn()
			}
			ev.Str(xglog.FieldEvent, "circuit_breaker.transition").
				Str(xglog.FieldOldState, string(from)).
				Str(xglog.FieldNewState, string(to)).
				Msg("gotenberg circuit breaker changed state")
		}),
	)
}

// New returns a client for the Gotenberg instance at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: want http(s)://host[:port]", baseURL)
	}

	logger := xglog.WithComponent("gotenberg")
	c := &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		http:      httpx.NewClient(0),
		breaker:   NewCircuitBreaker(0, 0, logger),
		retry:     DefaultRetryPolicy(),
		logger:    logger,
		userAgent: version.UserAgent(),
		newTrace:  uuid.NewString,
		tracer:    telemetry.Tracer(telemetry.TracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// request describes one Gotenberg call.
type request struct {
	op     string
	method string
	route  string
	engine string
	accept string
	form   *Form
	// probe requests skip the circuit breaker and retries.
	probe bool
}

// opValidate is the operation reported for options rejected before sending.
const opValidate = "validate"

func (c *Client) invalid(op string, sentinel error, err error) *Error {
	return &Error{Sentinel: sentinel, Operation: op, Err: err}
}

// send performs req with rate limiting, the circuit breaker and retries.
// On success the caller owns the response body.
func (c *Client) send(ctx context.Context, req request) (*http.Response, string, error) {
	traceID := ""
	if req.form != nil {
		if err := req.form.Err(); err != nil {
			return nil, "", c.invalid(opValidate, ErrBadRequest, err)
		}
		if err := req.form.checkReaders(); err != nil {
			return nil, "", c.invalid(req.op, ErrNoInput, err)
		}
		traceID = req.form.header.Get(HeaderTrace)
	}
	if traceID == "" {
		traceID = c.newTrace()
	}

	var files, embeds int
	if req.form != nil {
		files, embeds = len(req.form.files), len(req.form.embeds)
	}
	ctx, span := c.tracer.Start(ctx, "gotenberg."+req.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.RequestAttributes(req.route, req.engine, traceID, files, embeds)...),
	)
	defer span.End()

	logger := xglog.WithContext(xglog.ContextWithTrace(ctx, traceID), c.logger).With().
		Str(xglog.FieldRoute, req.route).Logger()

	attempts := c.retry.MaxAttempts
	if attempts < 1 || req.probe || (req.form != nil && !req.form.replayable()) {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := c.retry.backoff(attempt - 1)
			metrics.IncRetry(req.route)
			logger.Warn().Err(lastErr).
				Int(xglog.FieldAttempt, attempt).
				Dur("delay", delay).
				Msg("retrying gotenberg request")
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				err := transportError(req.op, traceID, ctx.Err())
				span.SetStatus(codes.Error, err.Error())
				return nil, traceID, err
			case <-timer.C:
			}
		}

		if err := c.admit(ctx, req.engine); err != nil {
			gerr := transportError(req.op, traceID, err)
			if errors.Is(err, ratelimit.ErrLimited) {
				gerr = &Error{Sentinel: ErrTooManyRequests, Operation: req.op, Trace: traceID, Err: err}
			}
			span.SetStatus(codes.Error, gerr.Error())
			return nil, traceID, gerr
		}

		start := time.Now()
		resp, err := c.attempt(ctx, req, traceID)
		elapsed := time.Since(start)
		metrics.ObserveRequest(req.route, kind(err), elapsed)

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		var gerr *Error
		if errors.As(err, &gerr) && gerr.Status > 0 {
			status = gerr.Status
		}
		errType := ""
		if err != nil {
			errType = kind(err)
		}
		span.AddEvent("attempt", trace.WithAttributes(telemetry.ResultAttributes(attempt, status, errType)...))

		logger.Debug().
			Int(xglog.FieldAttempt, attempt).
			Int(xglog.FieldStatus, status).
			Int(xglog.FieldFiles, files).
			Dur(xglog.FieldDuration, elapsed).
			Msg("gotenberg request")

		if err == nil {
			return resp, traceID, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return nil, traceID, lastErr
}

func (c *Client) admit(ctx context.Context, engine string) error {
	if !c.noWait {
		return c.limiter.Wait(ctx, engine)
	}
	if !c.limiter.Allow(engine) {
		return fmt.Errorf("%s: %w", engine, ratelimit.ErrLimited)
	}
	return nil
}

// attempt runs a single HTTP exchange through the circuit breaker.
func (c *Client) attempt(ctx context.Context, req request, traceID string) (*http.Response, error) {
	if c.breaker == nil || req.probe {
		return c.do(ctx, req, traceID)
	}
	var resp *http.Response
	err := c.breaker.Execute(func() error {
		r, err := c.do(ctx, req, traceID)
		resp = r
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		var gerr *Error
		if !errors.As(err, &gerr) {
			return nil, &Error{Sentinel: ErrUnavailable, Operation: req.op, Trace: traceID, Err: ErrCircuitOpen}
		}
	}
	return resp, err
}

// do builds and sends one request. The multipart body is produced by a
// goroutine writing into a pipe, so files are never buffered in memory.
func (c *Client) do(ctx context.Context, req request, traceID string) (*http.Response, error) {
	var (
		body        io.Reader
		contentType string
		pr          *io.PipeReader
		writerDone  sync.WaitGroup
	)
	if req.form != nil {
		var pw *io.PipeWriter
		pr, pw = io.Pipe()
		mw := multipart.NewWriter(pw)
		contentType = mw.FormDataContentType()
		body = pr
		form := req.form
		writerDone.Add(1)
		go func() {
			defer writerDone.Done()
			err := form.write(mw)
			if err == nil {
				err = mw.Close()
			}
			_ = pw.CloseWithError(err)
		}()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.route, body)
	if err != nil {
		if pr != nil {
			_ = pr.CloseWithError(err)
			writerDone.Wait()
		}
		return nil, c.invalid(req.op, ErrBadRequest, err)
	}
	if req.form != nil {
		for k, vs := range req.form.header {
			for _, v := range vs {
				httpReq.Header.Add(k, v)
			}
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set(HeaderTrace, traceID)
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	}
	if c.username != "" || c.password != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if pr != nil {
			_ = pr.CloseWithError(err)
			writerDone.Wait()
		}
		return nil, transportError(req.op, traceID, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	if pr != nil {
		// Gotenberg may reject a request before reading the whole body.
		_ = pr.CloseWithError(io.ErrClosedPipe)
		writerDone.Wait()
	}
	respTrace := resp.Header.Get(HeaderTrace)
	if respTrace == "" {
		respTrace = traceID
	}
	return nil, &Error{
		Sentinel:  sentinelForStatus(resp.StatusCode),
		Operation: req.op,
		Status:    resp.StatusCode,
		Body:      strings.TrimSpace(string(data)),
		Trace:     respTrace,
	}
}

// countingBody reports the bytes read from a result body when closed.
type countingBody struct {
	io.ReadCloser
	route string
	n     int64
	once  sync.Once
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n += int64(n)
	return n, err
}

func (b *countingBody) Close() error {
	var err error
	b.once.Do(func() {
		err = b.ReadCloser.Close()
		metrics.AddResponseBytes(b.route, b.n)
	})
	return err
}

// result wraps a successful response.
func (c *Client) result(resp *http.Response, route, traceID string) *Result {
	r := newResult(resp, &countingBody{ReadCloser: resp.Body, route: route})
	if r.Trace == "" {
		r.Trace = traceID
	}
	return r
}
