package gotenberg_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/gotenberg-client/internal/cache"
	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	"github.com/ManuGH/gotenberg-client/internal/gotenberg/gotenbergtest"
	"github.com/ManuGH/gotenberg-client/internal/ratelimit"
	"github.com/ManuGH/gotenberg-client/internal/resilience"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *gotenbergtest.Server, opts ...gotenberg.Option) *gotenberg.Client {
	t.Helper()
	base := []gotenberg.Option{
		gotenberg.WithLogger(zerolog.Nop()),
		gotenberg.WithRetry(gotenberg.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}),
	}
	c, err := gotenberg.New(srv.URL, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newServer(t *testing.T, opts ...gotenbergtest.Option) *gotenbergtest.Server {
	t.Helper()
	srv := gotenbergtest.New(opts...)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_RejectsInvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:3000", "ftp://host", "http://"} {
		_, err := gotenberg.New(raw)
		assert.Error(t, err, raw)
	}
	c, err := gotenberg.New("http://gotenberg:3000/")
	require.NoError(t, err)
	assert.Equal(t, "http://gotenberg:3000", c.BaseURL())
}

func TestConvertHTML_SendsIndexAndOptions(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	opts := gotenberg.NewChromiumConvertOptions().
		PaperSize(gotenberg.PaperLetter).
		PrintBackground(true).
		OutputFilename("report").
		File(gotenberg.FileFromString("style.css", "body{}"))

	res, err := c.ConvertHTMLString(context.Background(), "<h1>hi</h1>", opts)
	require.NoError(t, err)
	body, err := res.Bytes()
	require.NoError(t, err)

	assert.Equal(t, gotenbergtest.MinimalPDF, body)
	assert.True(t, res.IsPDF())
	assert.Equal(t, "report.pdf", res.Filename)
	assert.NotEmpty(t, res.Trace)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, gotenberg.RouteConvertHTML, req.Route)
	assert.Equal(t, []string{"style.css", "index.html"}, req.FileNames("files"))
	assert.Equal(t, "8.5", req.Field("paperWidth"))
	assert.Equal(t, "11", req.Field("paperHeight"))
	assert.Equal(t, "true", req.Field("printBackground"))
	assert.Equal(t, "application/pdf, application/zip", req.Header.Get("Accept"))
	assert.Equal(t, res.Trace, req.Header.Get(gotenberg.HeaderTrace))
	assert.True(t, strings.HasPrefix(req.Header.Get("User-Agent"), "gotenberg-client/"))

	// The caller's options are untouched.
	assert.Len(t, opts.FileParts(), 1)
}

func TestConvertURL(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	res, err := c.ConvertURL(context.Background(), "https://example.com", nil)
	require.NoError(t, err)
	require.NoError(t, res.Close())

	req, _ := srv.LastRequest()
	assert.Equal(t, "https://example.com", req.Field("url"))
	assert.Empty(t, req.Files)

	_, err = c.ConvertURL(context.Background(), " ", nil)
	assert.ErrorIs(t, err, gotenberg.ErrNoInput)
}

func TestConvertMarkdown_RequiresIndexAndMarkdown(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	_, err := c.ConvertMarkdown(context.Background(), gotenberg.NewChromiumConvertOptions().
		File(gotenberg.FileFromString("doc.md", "# t")))
	require.ErrorIs(t, err, gotenberg.ErrNoInput)
	assert.Equal(t, 0, srv.Count(gotenberg.RouteConvertMarkdown))

	res, err := c.ConvertMarkdown(context.Background(), gotenberg.NewChromiumConvertOptions().
		File(gotenberg.FileFromString("index.html", `{{ toHTML "doc.md" }}`)).
		File(gotenberg.FileFromString("doc.md", "# t")))
	require.NoError(t, err)
	require.NoError(t, res.Close())
	assert.Equal(t, 1, srv.Count(gotenberg.RouteConvertMarkdown))
}

func TestScreenshot_AcceptsImages(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	opts := gotenberg.NewChromiumScreenshotOptions().Format(gotenberg.FormatJPEG).Quality(80).Width(1280)
	res, err := c.ScreenshotURL(context.Background(), "https://example.com", opts)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, "image/jpeg", res.ContentType)
	req, _ := srv.LastRequest()
	assert.Equal(t, gotenberg.RouteScreenshotURL, req.Route)
	assert.Equal(t, "image/png, image/jpeg, image/webp", req.Header.Get("Accept"))
	assert.Equal(t, "80", req.Field("quality"))
	assert.Equal(t, "1280", req.Field("width"))

	res2, err := c.ScreenshotHTMLString(context.Background(), "<p>x</p>", nil)
	require.NoError(t, err)
	defer res2.Close()
	assert.Equal(t, "image/png", res2.ContentType)
}

func TestConvertOffice_MultipleFilesReturnZip(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	_, err := c.ConvertOffice(context.Background(), nil)
	require.ErrorIs(t, err, gotenberg.ErrNoInput)

	opts := gotenberg.NewLibreOfficeOptions().
		File(gotenberg.FileFromString("a.docx", "a")).
		File(gotenberg.FileFromString("b.xlsx", "b")).
		Landscape(true)
	res, err := c.ConvertOffice(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, res.IsZip())

	var buf bytes.Buffer
	_, err = res.WriteTo(&buf)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.pdf", zr.File[0].Name)

	res, err = c.ConvertOffice(context.Background(), opts.Clone().Merge(true))
	require.NoError(t, err)
	defer res.Close()
	assert.True(t, res.IsPDF())
}

func TestPDFEngines_Validation(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()
	pdf := gotenberg.FileFromBytes("in.pdf", gotenbergtest.MinimalPDF)

	_, err := c.MergePDFs(ctx, gotenberg.NewPDFEngineOptions())
	assert.ErrorIs(t, err, gotenberg.ErrNoInput)

	_, err = c.SplitPDFs(ctx, gotenberg.NewPDFEngineOptions().File(pdf))
	assert.ErrorIs(t, err, gotenberg.ErrBadRequest)

	_, err = c.ConvertPDFs(ctx, gotenberg.NewPDFEngineOptions().File(pdf))
	assert.ErrorIs(t, err, gotenberg.ErrBadRequest)

	_, err = c.EncryptPDFs(ctx, gotenberg.NewPDFEngineOptions().File(pdf).OwnerPassword("o"))
	assert.ErrorIs(t, err, gotenberg.ErrBadRequest)

	assert.Empty(t, srv.Requests())
}

func TestPDFEngines_Routes(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()
	pdf := func(name string) gotenberg.File { return gotenberg.FileFromBytes(name, gotenbergtest.MinimalPDF) }

	tests := []struct {
		name  string
		route string
		call  func() (*gotenberg.Result, error)
		field string
		value string
	}{
		{"merge", gotenberg.RouteMerge, func() (*gotenberg.Result, error) {
			return c.MergePDFs(ctx, gotenberg.NewPDFEngineOptions().Files(pdf("1.pdf"), pdf("2.pdf")).PDFUA(true))
		}, "pdfua", "true"},
		{"split", gotenberg.RouteSplit, func() (*gotenberg.Result, error) {
			return c.SplitPDFs(ctx, gotenberg.NewPDFEngineOptions().File(pdf("1.pdf")).
				Split(gotenberg.SplitOptions{Mode: gotenberg.SplitPages, Span: "1-2", Unify: true}))
		}, "splitSpan", "1-2"},
		{"flatten", gotenberg.RouteFlatten, func() (*gotenberg.Result, error) {
			return c.FlattenPDFs(ctx, gotenberg.NewPDFEngineOptions().File(pdf("1.pdf")).Flatten(true))
		}, "flatten", "true"},
		{"convert", gotenberg.RouteConvertPDF, func() (*gotenberg.Result, error) {
			return c.ConvertPDFs(ctx, gotenberg.NewPDFEngineOptions().File(pdf("1.pdf")).PDFA(gotenberg.PDFA2b))
		}, "pdfa", "PDF/A-2b"},
		{"encrypt", gotenberg.RouteEncrypt, func() (*gotenberg.Result, error) {
			return c.EncryptPDFs(ctx, gotenberg.NewPDFEngineOptions().File(pdf("1.pdf")).UserPassword("secret"))
		}, "userPassword", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.call()
			require.NoError(t, err)
			require.NoError(t, res.Close())
			req, _ := srv.LastRequest()
			assert.Equal(t, tt.route, req.Route)
			assert.Equal(t, tt.value, req.Field(tt.field))
		})
	}
}

func TestSplitPDFs_ReturnsZip(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	res, err := c.SplitPDFs(context.Background(), gotenberg.NewPDFEngineOptions().
		File(gotenberg.FileFromBytes("in.pdf", gotenbergtest.MinimalPDF)).
		Split(gotenberg.SplitOptions{Mode: gotenberg.SplitIntervals, Span: "1"}))
	require.NoError(t, err)
	defer res.Close()
	assert.True(t, res.IsZip())
}

func TestMetadata_WriteEncodesEntries(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	_, err := c.WriteMetadata(context.Background(), gotenberg.NewMetadataOptions().
		File(gotenberg.FileFromBytes("in.pdf", gotenbergtest.MinimalPDF)))
	require.ErrorIs(t, err, gotenberg.ErrBadRequest)

	res, err := c.WriteMetadata(context.Background(), gotenberg.NewMetadataOptions().
		File(gotenberg.FileFromBytes("in.pdf", gotenbergtest.MinimalPDF)).
		Metadata("Author", "Jane").
		Metadata("Keywords", []string{"a", "b"}))
	require.NoError(t, err)
	require.NoError(t, res.Close())

	req, _ := srv.LastRequest()
	assert.Equal(t, gotenberg.RouteWriteMetadata, req.Route)
	assert.JSONEq(t, `{"Author":"Jane","Keywords":["a","b"]}`, req.Field("metadata"))
}

func TestMetadata_ReadIsCachedByContent(t *testing.T) {
	srv := newServer(t)
	mem := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })
	c := newTestClient(t, srv, gotenberg.WithCache(mem, time.Minute))
	ctx := context.Background()

	opts := gotenberg.NewMetadataOptions().File(gotenberg.FileFromBytes("in.pdf", gotenbergtest.MinimalPDF))
	md, err := c.ReadMetadata(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, "gotenbergtest", md["in.pdf"]["Author"])

	md, err = c.ReadMetadata(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, "gotenbergtest", md["in.pdf"]["Author"])
	assert.Equal(t, 1, srv.Count(gotenberg.RouteReadMetadata))

	// Different content misses.
	_, err = c.ReadMetadata(ctx, gotenberg.NewMetadataOptions().File(gotenberg.FileFromString("in.pdf", "%PDF-other")))
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Count(gotenberg.RouteReadMetadata))
}

func TestMetadata_ReaderFilesBypassCache(t *testing.T) {
	srv := newServer(t)
	mem := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })
	c := newTestClient(t, srv, gotenberg.WithCache(mem, time.Minute))

	for i := 0; i < 2; i++ {
		opts := gotenberg.NewMetadataOptions().File(gotenberg.FileFromReader("in.pdf", bytes.NewReader(gotenbergtest.MinimalPDF)))
		_, err := c.ReadMetadata(context.Background(), opts)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, srv.Count(gotenberg.RouteReadMetadata))
}

func TestErrors_MapStatusAndKeepBody(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)
	srv.FailNext(gotenberg.RouteConvertURL, gotenbergtest.Failure{Status: http.StatusBadRequest, Body: "Invalid form data: bad paper size"})

	_, err := c.ConvertURL(context.Background(), "https://example.com", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, gotenberg.ErrBadRequest)

	var gerr *gotenberg.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusBadRequest, gerr.Status)
	assert.Equal(t, "convert_url", gerr.Operation)
	assert.Contains(t, gerr.Body, "bad paper size")
	assert.NotEmpty(t, gerr.Trace)
	assert.Equal(t, 1, srv.Count(gotenberg.RouteConvertURL), "4xx must not be retried")
}

func TestErrors_ErrorBodyIsCapped(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)
	srv.FailNext(gotenberg.RouteConvertURL, gotenbergtest.Failure{Status: http.StatusConflict, Body: strings.Repeat("x", 10<<10)})

	_, err := c.ConvertURL(context.Background(), "https://example.com", nil)
	var gerr *gotenberg.Error
	require.True(t, errors.As(err, &gerr))
	assert.ErrorIs(t, err, gotenberg.ErrConflict)
	assert.LessOrEqual(t, len(gerr.Body), 4<<10)
}

func TestRetry_RetriesServiceUnavailable(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)
	srv.FailNext(gotenberg.RouteMerge,
		gotenbergtest.Failure{Status: http.StatusServiceUnavailable},
		gotenbergtest.Failure{Status: http.StatusTooManyRequests},
	)

	res, err := c.MergePDFs(context.Background(), gotenberg.NewPDFEngineOptions().
		File(gotenberg.FileFromBytes("a.pdf", gotenbergtest.MinimalPDF)))
	require.NoError(t, err)
	require.NoError(t, res.Close())
	assert.Equal(t, 3, srv.Count(gotenberg.RouteMerge))

	reqs := srv.Requests()
	assert.Equal(t, reqs[0].Header.Get(gotenberg.HeaderTrace), reqs[2].Header.Get(gotenberg.HeaderTrace))
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv, gotenberg.WithBreaker(nil))
	srv.FailNext(gotenberg.RouteFlatten,
		gotenbergtest.Failure{Status: http.StatusServiceUnavailable},
		gotenbergtest.Failure{Status: http.StatusServiceUnavailable},
		gotenbergtest.Failure{Status: http.StatusServiceUnavailable},
	)

	_, err := c.FlattenPDFs(context.Background(), gotenberg.NewPDFEngineOptions().
		File(gotenberg.FileFromBytes("a.pdf", gotenbergtest.MinimalPDF)))
	assert.ErrorIs(t, err, gotenberg.ErrUnavailable)
	assert.Equal(t, 3, srv.Count(gotenberg.RouteFlatten))
}

func TestRetry_NotForReaderFiles(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)
	srv.FailNext(gotenberg.RouteMerge, gotenbergtest.Failure{Status: http.StatusServiceUnavailable})

	opts := gotenberg.NewPDFEngineOptions().
		File(gotenberg.FileFromReader("a.pdf", bytes.NewReader(gotenbergtest.MinimalPDF)))
	_, err := c.MergePDFs(context.Background(), opts)
	assert.ErrorIs(t, err, gotenberg.ErrUnavailable)
	assert.Equal(t, 1, srv.Count(gotenberg.RouteMerge))

	// The stream is spent; a second send fails before reaching the server.
	_, err = c.MergePDFs(context.Background(), opts)
	assert.ErrorIs(t, err, gotenberg.ErrFileConsumed)
	assert.ErrorIs(t, err, gotenberg.ErrNoInput)
	assert.Equal(t, 1, srv.Count(gotenberg.RouteMerge))
}

func TestBreaker_OpensOnServerErrors(t *testing.T) {
	srv := newServer(t)
	breaker := gotenberg.NewCircuitBreaker(2, time.Hour, zerolog.Nop())
	c := newTestClient(t, srv,
		gotenberg.WithBreaker(breaker),
		gotenberg.WithRetry(gotenberg.RetryPolicy{MaxAttempts: 1}),
	)
	srv.FailNext(gotenberg.RouteConvertURL,
		gotenbergtest.Failure{Status: http.StatusInternalServerError},
		gotenbergtest.Failure{Status: http.StatusInternalServerError},
	)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.ConvertURL(ctx, "https://example.com", nil)
		require.ErrorIs(t, err, gotenberg.ErrServer)
	}

	_, err := c.ConvertURL(ctx, "https://example.com", nil)
	assert.ErrorIs(t, err, gotenberg.ErrCircuitOpen)
	assert.ErrorIs(t, err, gotenberg.ErrUnavailable)
	assert.False(t, gotenberg.IsRetryable(err))
	assert.Equal(t, 2, srv.Count(gotenberg.RouteConvertURL))

	// Health still reaches the server.
	hs, err := c.Health(ctx)
	require.NoError(t, err)
	assert.True(t, hs.Healthy())
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	srv := newServer(t)
	breaker := gotenberg.NewCircuitBreaker(1, time.Hour, zerolog.Nop())
	c := newTestClient(t, srv, gotenberg.WithBreaker(breaker))
	srv.FailNext(gotenberg.RouteConvertURL, gotenbergtest.Failure{Status: http.StatusBadRequest})

	_, err := c.ConvertURL(context.Background(), "https://example.com", nil)
	require.ErrorIs(t, err, gotenberg.ErrBadRequest)

	res, err := c.ConvertURL(context.Background(), "https://example.com", nil)
	require.NoError(t, err)
	require.NoError(t, res.Close())
}

func TestBreaker_CancelledHalfOpenCallDoesNotClose(t *testing.T) {
	srv := newServer(t)
	breaker := gotenberg.NewCircuitBreaker(1, 20*time.Millisecond, zerolog.Nop())
	c := newTestClient(t, srv,
		gotenberg.WithBreaker(breaker),
		gotenberg.WithRetry(gotenberg.RetryPolicy{MaxAttempts: 1}),
	)
	srv.FailNext(gotenberg.RouteConvertURL, gotenbergtest.Failure{Status: http.StatusInternalServerError})

	_, err := c.ConvertURL(context.Background(), "https://example.com", nil)
	require.ErrorIs(t, err, gotenberg.ErrServer)
	require.Equal(t, resilience.StateOpen, breaker.State())
	time.Sleep(40 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ConvertURL(ctx, "https://example.com", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, resilience.StateHalfOpen, breaker.State())

	res, err := c.ConvertURL(context.Background(), "https://example.com", nil)
	require.NoError(t, err)
	require.NoError(t, res.Close())
	assert.Equal(t, resilience.StateClosed, breaker.State())
}

func TestNoWait_FailsWhenThrottled(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv,
		gotenberg.WithLimiter(ratelimit.New(ratelimit.Config{GlobalRate: 0.001, GlobalBurst: 1})),
		gotenberg.WithNoWait(true),
	)

	res, err := c.ConvertURL(context.Background(), "https://example.com", nil)
	require.NoError(t, err)
	require.NoError(t, res.Close())

	_, err = c.ConvertURL(context.Background(), "https://example.com", nil)
	assert.ErrorIs(t, err, gotenberg.ErrTooManyRequests)
	assert.ErrorIs(t, err, ratelimit.ErrLimited)
	assert.Equal(t, 1, srv.Count(gotenberg.RouteConvertURL))
}

func TestValidationError_NeverSent(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	_, err := c.ScreenshotURL(context.Background(), "https://example.com",
		gotenberg.NewChromiumScreenshotOptions().Quality(150))
	var gerr *gotenberg.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "validate", gerr.Operation)
	assert.ErrorIs(t, err, gotenberg.ErrBadRequest)
	assert.Empty(t, srv.Requests())
}

func TestValidationError_OfficeQualityOutOfRange(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	opts := gotenberg.NewLibreOfficeOptions().
		File(gotenberg.FileFromString("doc.txt", "hello")).
		Quality(0)
	_, err := c.ConvertOffice(context.Background(), opts)
	var gerr *gotenberg.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "validate", gerr.Operation)
	assert.ErrorIs(t, err, gotenberg.ErrBadRequest)
	assert.Empty(t, srv.Requests())
}

func TestBasicAuth(t *testing.T) {
	srv := newServer(t, gotenbergtest.WithBasicAuth("user", "pass"))

	_, err := newTestClient(t, srv).ConvertURL(context.Background(), "https://example.com", nil)
	assert.ErrorIs(t, err, gotenberg.ErrUnauthorized)

	res, err := newTestClient(t, srv, gotenberg.WithBasicAuth("user", "pass")).
		ConvertURL(context.Background(), "https://example.com", nil)
	require.NoError(t, err)
	require.NoError(t, res.Close())
}

func TestWebhook_ReturnsAccepted(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)

	opts := gotenberg.NewChromiumConvertOptions().Webhook(gotenberg.Webhook{
		URL:      "http://hooks.local/done",
		ErrorURL: "http://hooks.local/error",
	})
	res, err := c.ConvertURL(context.Background(), "https://example.com", opts)
	require.NoError(t, err)
	defer res.Close()

	assert.True(t, res.Async())
	req, _ := srv.LastRequest()
	assert.Equal(t, "http://hooks.local/done", req.Header.Get(gotenberg.HeaderWebhookURL))
}

func TestTrace_FromOptionsAndGenerator(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv, gotenberg.WithTraceGenerator(func() string { return "generated" }))

	res, err := c.ConvertURL(context.Background(), "https://example.com", gotenberg.NewChromiumConvertOptions().Trace("mine"))
	require.NoError(t, err)
	require.NoError(t, res.Close())
	assert.Equal(t, "mine", res.Trace)

	res, err = c.ConvertURL(context.Background(), "https://example.com", nil)
	require.NoError(t, err)
	require.NoError(t, res.Close())
	assert.Equal(t, "generated", res.Trace)
}

func TestHealthAndVersion(t *testing.T) {
	srv := newServer(t, gotenbergtest.WithVersion("8.1.0"))
	c := newTestClient(t, srv)
	ctx := context.Background()

	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "8.1.0", v)

	hs, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "up", hs.Status)
	assert.Contains(t, hs.Details, "chromium")

	srv.SetDown(true)
	hs, err = c.Health(ctx)
	require.ErrorIs(t, err, gotenberg.ErrUnavailable)
	require.NotNil(t, hs)
	assert.Equal(t, "down", hs.Status)
	assert.False(t, hs.Healthy())
}

func TestContextCancellation(t *testing.T) {
	srv := newServer(t)
	c := newTestClient(t, srv)
	srv.FailNext(gotenberg.RouteConvertURL, gotenbergtest.Failure{Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.ConvertURL(ctx, "https://example.com", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, gotenberg.ErrTimeout)
}
