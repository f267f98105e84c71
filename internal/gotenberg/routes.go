package gotenberg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ManuGH/gotenberg-client/internal/ratelimit"
)

// Gotenberg routes.
const (
	RouteConvertHTML        = "/forms/chromium/convert/html"
	RouteConvertURL         = "/forms/chromium/convert/url"
	RouteConvertMarkdown    = "/forms/chromium/convert/markdown"
	RouteScreenshotHTML     = "/forms/chromium/screenshot/html"
	RouteScreenshotURL      = "/forms/chromium/screenshot/url"
	RouteScreenshotMarkdown = "/forms/chromium/screenshot/markdown"
	RouteLibreOffice        = "/forms/libreoffice/convert"
	RouteMerge              = "/forms/pdfengines/merge"
	RouteSplit              = "/forms/pdfengines/split"
	RouteFlatten            = "/forms/pdfengines/flatten"
	RouteConvertPDF         = "/forms/pdfengines/convert"
	RouteEncrypt            = "/forms/pdfengines/encrypt"
	RouteReadMetadata       = "/forms/pdfengines/metadata/read"
	RouteWriteMetadata      = "/forms/pdfengines/metadata/write"
	RouteHealth             = "/health"
	RouteVersion            = "/version"
)

const (
	acceptDocument   = "application/pdf, application/zip"
	acceptScreenshot = "image/png, image/jpeg, image/webp"
	acceptJSON       = "application/json"
	acceptText       = "text/plain"

	indexHTML = "index.html"
)

var errIndexMissing = errors.New("index.html is required")

func (c *Client) post(ctx context.Context, op, route, engine, accept string, form *Form) (*Result, error) {
	resp, traceID, err := c.send(ctx, request{
		op:     op,
		method: http.MethodPost,
		route:  route,
		engine: engine,
		accept: accept,
		form:   form,
	})
	if err != nil {
		return nil, err
	}
	return c.result(resp, route, traceID), nil
}

// ConvertHTML renders indexHTML to PDF with Chromium. Assets referenced by
// the page can be added to opts as files.
func (c *Client) ConvertHTML(ctx context.Context, html []byte, opts *ChromiumConvertOptions) (*Result, error) {
	o := opts.Clone().File(FileFromBytes(indexHTML, html))
	return c.post(ctx, "convert_html", RouteConvertHTML, ratelimit.EngineChromium, acceptDocument, &o.Form)
}

// ConvertHTMLString is ConvertHTML for a string document.
func (c *Client) ConvertHTMLString(ctx context.Context, html string, opts *ChromiumConvertOptions) (*Result, error) {
	return c.ConvertHTML(ctx, []byte(html), opts)
}

// ConvertURL renders a remote page to PDF.
func (c *Client) ConvertURL(ctx context.Context, pageURL string, opts *ChromiumConvertOptions) (*Result, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, c.invalid("convert_url", ErrNoInput, errors.New("url is required"))
	}
	o := opts.Clone()
	o.set("url", pageURL)
	return c.post(ctx, "convert_url", RouteConvertURL, ratelimit.EngineChromium, acceptDocument, &o.Form)
}

// ConvertMarkdown renders Markdown files through an index.html template
// that references them with {{ toHTML "file.md" }}. opts must carry both.
func (c *Client) ConvertMarkdown(ctx context.Context, opts *ChromiumConvertOptions) (*Result, error) {
	o := opts.Clone()
	if err := checkMarkdown(&o.Form); err != nil {
		return nil, c.invalid("convert_markdown", ErrNoInput, err)
	}
	return c.post(ctx, "convert_markdown", RouteConvertMarkdown, ratelimit.EngineChromium, acceptDocument, &o.Form)
}

// ScreenshotHTML captures indexHTML as an image.
func (c *Client) ScreenshotHTML(ctx context.Context, html []byte, opts *ChromiumScreenshotOptions) (*Result, error) {
	o := opts.Clone().File(FileFromBytes(indexHTML, html))
	return c.post(ctx, "screenshot_html", RouteScreenshotHTML, ratelimit.EngineChromium, acceptScreenshot, &o.Form)
}

// ScreenshotHTMLString is ScreenshotHTML for a string document.
func (c *Client) ScreenshotHTMLString(ctx context.Context, html string, opts *ChromiumScreenshotOptions) (*Result, error) {
	return c.ScreenshotHTML(ctx, []byte(html), opts)
}

// ScreenshotURL captures a remote page.
func (c *Client) ScreenshotURL(ctx context.Context, pageURL string, opts *ChromiumScreenshotOptions) (*Result, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, c.invalid("screenshot_url", ErrNoInput, errors.New("url is required"))
	}
	o := opts.Clone()
	o.set("url", pageURL)
	return c.post(ctx, "screenshot_url", RouteScreenshotURL, ratelimit.EngineChromium, acceptScreenshot, &o.Form)
}

// ScreenshotMarkdown captures rendered Markdown; see ConvertMarkdown.
func (c *Client) ScreenshotMarkdown(ctx context.Context, opts *ChromiumScreenshotOptions) (*Result, error) {
	o := opts.Clone()
	if err := checkMarkdown(&o.Form); err != nil {
		return nil, c.invalid("screenshot_markdown", ErrNoInput, err)
	}
	return c.post(ctx, "screenshot_markdown", RouteScreenshotMarkdown, ratelimit.EngineChromium, acceptScreenshot, &o.Form)
}

func checkMarkdown(f *Form) error {
	if !f.hasFile(indexHTML) {
		return errIndexMissing
	}
	for _, file := range f.files {
		if file.Ext() == ".md" {
			return nil
		}
	}
	return errors.New("at least one .md file is required")
}

// ConvertOffice converts office documents (docx, xlsx, odt, ...) to PDF.
// Several files produce a ZIP unless Merge is set.
func (c *Client) ConvertOffice(ctx context.Context, opts *LibreOfficeOptions) (*Result, error) {
	o := opts.Clone()
	if len(o.files) == 0 {
		return nil, c.invalid("convert_office", ErrNoInput, errors.New("at least one file is required"))
	}
	return c.post(ctx, "convert_office", RouteLibreOffice, ratelimit.EngineLibreOffice, acceptDocument, &o.Form)
}

// MergePDFs merges the PDFs in alphanumeric order of their names.
func (c *Client) MergePDFs(ctx context.Context, opts *PDFEngineOptions) (*Result, error) {
	return c.pdfEngine(ctx, "merge_pdfs", RouteMerge, opts, nil)
}

// SplitPDFs splits each PDF according to the Split settings of opts.
func (c *Client) SplitPDFs(ctx context.Context, opts *PDFEngineOptions) (*Result, error) {
	return c.pdfEngine(ctx, "split_pdfs", RouteSplit, opts, func(f *Form) error {
		if !f.has("splitMode") || !f.has("splitSpan") {
			return errors.New("split mode and span are required")
		}
		return nil
	})
}

// FlattenPDFs merges annotations and form fields into page content.
func (c *Client) FlattenPDFs(ctx context.Context, opts *PDFEngineOptions) (*Result, error) {
	return c.pdfEngine(ctx, "flatten_pdfs", RouteFlatten, opts, nil)
}

// ConvertPDFs converts PDFs to PDF/A, PDF/UA or both.
func (c *Client) ConvertPDFs(ctx context.Context, opts *PDFEngineOptions) (*Result, error) {
	return c.pdfEngine(ctx, "convert_pdfs", RouteConvertPDF, opts, func(f *Form) error {
		if !f.has("pdfa") && !f.has("pdfua") {
			return errors.New("pdfa or pdfua is required")
		}
		return nil
	})
}

// EncryptPDFs protects PDFs with the passwords set on opts.
func (c *Client) EncryptPDFs(ctx context.Context, opts *PDFEngineOptions) (*Result, error) {
	return c.pdfEngine(ctx, "encrypt_pdfs", RouteEncrypt, opts, func(f *Form) error {
		if v, _ := f.Value("userPassword"); v == "" {
			return errors.New("userPassword is required")
		}
		return nil
	})
}

func (c *Client) pdfEngine(ctx context.Context, op, route string, opts *PDFEngineOptions, check func(*Form) error) (*Result, error) {
	o := opts.Clone()
	if len(o.files) == 0 {
		return nil, c.invalid(op, ErrNoInput, errors.New("at least one PDF is required"))
	}
	if check != nil {
		if err := check(&o.Form); err != nil {
			return nil, c.invalid(opValidate, ErrBadRequest, err)
		}
	}
	return c.post(ctx, op, route, ratelimit.EnginePDF, acceptDocument, &o.Form)
}

// Version returns the version string of the Gotenberg server.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, _, err := c.send(ctx, request{
		op:     "version",
		method: http.MethodGet,
		route:  RouteVersion,
		engine: ratelimit.EngineSystem,
		accept: acceptText,
	})
	if err != nil {
		return "", err
	}
	data, err := c.result(resp, RouteVersion, "").Bytes()
	if err != nil {
		return "", &Error{Sentinel: ErrBadResponse, Operation: "version", Err: err}
	}
	return strings.TrimSpace(string(data)), nil
}

// String implements fmt.Stringer for log output.
func (c *Client) String() string {
	return fmt.Sprintf("gotenberg.Client(%s)", c.baseURL)
}
