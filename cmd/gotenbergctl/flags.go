package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	"github.com/spf13/pflag"
)

// requestFlags apply to every operation.
type requestFlags struct {
	trace          string
	outputFilename string
	webhookURL     string
	webhookError   string
}

func (f *requestFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.trace, "trace", "", "correlation id sent as Gotenberg-Trace")
	fs.StringVar(&f.outputFilename, "output-filename", "", "filename Gotenberg gives the result (without extension)")
	fs.StringVar(&f.webhookURL, "webhook-url", "", "deliver the result asynchronously to this URL")
	fs.StringVar(&f.webhookError, "webhook-error-url", "", "URL notified when an asynchronous conversion fails")
}

type requestOptions[T any] interface {
	Trace(string) *T
	OutputFilename(string) *T
	Webhook(gotenberg.Webhook) *T
}

func applyRequest[T any](o requestOptions[T], f *requestFlags) {
	if f.trace != "" {
		o.Trace(f.trace)
	}
	if f.outputFilename != "" {
		o.OutputFilename(f.outputFilename)
	}
	if f.webhookURL != "" || f.webhookError != "" {
		o.Webhook(gotenberg.Webhook{URL: f.webhookURL, ErrorURL: f.webhookError})
	}
}

// pageFlags drive Chromium page loading.
type pageFlags struct {
	waitDelay       time.Duration
	waitFor         string
	userAgent       string
	headers         []string
	media           string
	failOnConsole   bool
	skipNetworkIdle bool
	omitBackground  bool
	failOnStatus    []int
	failOnResources bool
}

func (f *pageFlags) register(fs *pflag.FlagSet) {
	fs.DurationVar(&f.waitDelay, "wait-delay", 0, "wait before printing the page")
	fs.StringVar(&f.waitFor, "wait-for", "", "JavaScript expression that must become true before printing")
	fs.StringVar(&f.userAgent, "user-agent", "", "override the Chromium user agent")
	fs.StringArrayVar(&f.headers, "header", nil, "extra HTTP header for page requests, as 'Name: value' (repeatable)")
	fs.StringVar(&f.media, "media", "", "emulated media type (screen or print)")
	fs.BoolVar(&f.failOnConsole, "fail-on-console-exceptions", false, "fail when the page logs an exception")
	fs.BoolVar(&f.skipNetworkIdle, "skip-network-idle", false, "do not wait for network idle")
	fs.BoolVar(&f.omitBackground, "omit-background", false, "transparent background")
	fs.IntSliceVar(&f.failOnStatus, "fail-on-status", nil, "fail when the main page answers with one of these codes")
	fs.BoolVar(&f.failOnResources, "fail-on-resource-loading-failed", false, "fail when a resource cannot be loaded")
}

type pageOptions[T any] interface {
	requestOptions[T]
	WaitDelay(time.Duration) *T
	WaitForExpression(string) *T
	UserAgent(string) *T
	ExtraHTTPHeaders(map[string]string) *T
	EmulatedMediaType(gotenberg.EmulatedMediaType) *T
	FailOnConsoleExceptions(bool) *T
	SkipNetworkIdleEvent(bool) *T
	OmitBackground(bool) *T
	FailOnHTTPStatusCodes(...int) *T
	FailOnResourceLoadingFailed(bool) *T
}

func applyPage[T any](o pageOptions[T], fs *pflag.FlagSet, f *pageFlags) error {
	if fs.Changed("wait-delay") {
		o.WaitDelay(f.waitDelay)
	}
	if f.waitFor != "" {
		o.WaitForExpression(f.waitFor)
	}
	if f.userAgent != "" {
		o.UserAgent(f.userAgent)
	}
	if len(f.headers) > 0 {
		h, err := parseHeaders(f.headers)
		if err != nil {
			return err
		}
		o.ExtraHTTPHeaders(h)
	}
	if f.media != "" {
		o.EmulatedMediaType(gotenberg.EmulatedMediaType(f.media))
	}
	if fs.Changed("fail-on-console-exceptions") {
		o.FailOnConsoleExceptions(f.failOnConsole)
	}
	if fs.Changed("skip-network-idle") {
		o.SkipNetworkIdleEvent(f.skipNetworkIdle)
	}
	if fs.Changed("omit-background") {
		o.OmitBackground(f.omitBackground)
	}
	if len(f.failOnStatus) > 0 {
		o.FailOnHTTPStatusCodes(f.failOnStatus...)
	}
	if fs.Changed("fail-on-resource-loading-failed") {
		o.FailOnResourceLoadingFailed(f.failOnResources)
	}
	return nil
}

// outputFlags post-process generated PDFs.
type outputFlags struct {
	pdfa          string
	pdfua         bool
	flatten       bool
	userPassword  string
	ownerPassword string
	metadata      []string
}

func (f *outputFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.pdfa, "pdfa", "", "PDF/A format (PDF/A-1b, PDF/A-2b, PDF/A-3b)")
	fs.BoolVar(&f.pdfua, "pdfua", false, "PDF/UA accessibility output")
	fs.BoolVar(&f.flatten, "flatten", false, "flatten form fields and annotations")
	fs.StringVar(&f.userPassword, "user-password", "", "password required to open the PDF")
	fs.StringVar(&f.ownerPassword, "owner-password", "", "password required to change permissions")
	fs.StringArrayVar(&f.metadata, "meta", nil, "metadata entry as key=value (repeatable)")
}

type outputOptions[T any] interface {
	PDFA(gotenberg.PDFAFormat) *T
	PDFUA(bool) *T
	Flatten(bool) *T
	UserPassword(string) *T
	OwnerPassword(string) *T
	Metadata(map[string]any) *T
}

func applyOutput[T any](o outputOptions[T], fs *pflag.FlagSet, f *outputFlags) error {
	if f.pdfa != "" {
		o.PDFA(gotenberg.PDFAFormat(f.pdfa))
	}
	if fs.Changed("pdfua") {
		o.PDFUA(f.pdfua)
	}
	if fs.Changed("flatten") {
		o.Flatten(f.flatten)
	}
	if f.userPassword != "" {
		o.UserPassword(f.userPassword)
	}
	if f.ownerPassword != "" {
		o.OwnerPassword(f.ownerPassword)
	}
	if len(f.metadata) > 0 {
		md, err := parseMetadata(f.metadata)
		if err != nil {
			return err
		}
		o.Metadata(md)
	}
	return nil
}

// splitFlags select pages or intervals to split into.
type splitFlags struct {
	mode  string
	span  string
	unify bool
}

func (f *splitFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.mode, "split-mode", "", "split the output by intervals or pages")
	fs.StringVar(&f.span, "split-span", "", "interval length or page ranges, depending on --split-mode")
	fs.BoolVar(&f.unify, "split-unify", false, "keep the selected pages in one PDF (pages mode)")
}

func (f *splitFlags) options() (gotenberg.SplitOptions, bool) {
	if f.mode == "" && f.span == "" {
		return gotenberg.SplitOptions{}, false
	}
	return gotenberg.SplitOptions{Mode: gotenberg.SplitMode(f.mode), Span: f.span, Unify: f.unify}, true
}

func parseHeaders(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want 'Name: value'", h)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

func parseMetadata(raw []string) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata entry %q, want key=value", kv)
		}
		out[k] = v
	}
	return out, nil
}

var paperSizes = map[string]gotenberg.PaperSize{
	"letter":  gotenberg.PaperLetter,
	"legal":   gotenberg.PaperLegal,
	"tabloid": gotenberg.PaperTabloid,
	"ledger":  gotenberg.PaperLedger,
	"a0":      gotenberg.PaperA0,
	"a1":      gotenberg.PaperA1,
	"a2":      gotenberg.PaperA2,
	"a3":      gotenberg.PaperA3,
	"a4":      gotenberg.PaperA4,
	"a5":      gotenberg.PaperA5,
	"a6":      gotenberg.PaperA6,
}

func paperSize(name string) (gotenberg.PaperSize, error) {
	size, ok := paperSizes[strings.ToLower(name)]
	if !ok {
		return gotenberg.PaperSize{}, fmt.Errorf("unknown paper size %q", name)
	}
	return size, nil
}
