package gotenberg

import (
	"fmt"
	"time"
)

// chromiumPage holds the page-loading settings shared by Chromium
// conversions and screenshots.
type chromiumPage[T any] struct {
	o *options[T]
}

// WaitDelay waits before rendering, once the page has loaded.
func (c chromiumPage[T]) WaitDelay(d time.Duration) *T {
	if d < 0 {
		c.o.fail(fmt.Errorf("waitDelay: negative duration %s", d))
		return c.o.self
	}
	c.o.setDuration("waitDelay", d)
	return c.o.self
}

// WaitForExpression waits until the JavaScript expression returns true.
func (c chromiumPage[T]) WaitForExpression(expr string) *T {
	c.o.set("waitForExpression", expr)
	return c.o.self
}

// UserAgent overrides Chromium's User-Agent.
func (c chromiumPage[T]) UserAgent(ua string) *T {
	c.o.set("userAgent", ua)
	return c.o.self
}

// ExtraHTTPHeaders adds headers to every request Chromium makes.
func (c chromiumPage[T]) ExtraHTTPHeaders(h map[string]string) *T {
	c.o.setJSON("extraHttpHeaders", h)
	return c.o.self
}

// FailOnConsoleExceptions fails the request on a JavaScript exception.
func (c chromiumPage[T]) FailOnConsoleExceptions(v bool) *T {
	c.o.setBool("failOnConsoleExceptions", v)
	return c.o.self
}

// SkipNetworkIdleEvent renders without waiting for network idle.
func (c chromiumPage[T]) SkipNetworkIdleEvent(v bool) *T {
	c.o.setBool("skipNetworkIdleEvent", v)
	return c.o.self
}

// OmitBackground hides the default white background.
func (c chromiumPage[T]) OmitBackground(v bool) *T {
	c.o.setBool("omitBackground", v)
	return c.o.self
}

// EmulatedMediaType selects the CSS media type.
func (c chromiumPage[T]) EmulatedMediaType(m EmulatedMediaType) *T {
	if m != MediaScreen && m != MediaPrint {
		c.o.fail(fmt.Errorf("emulatedMediaType: unknown value %q", m))
		return c.o.self
	}
	c.o.set("emulatedMediaType", string(m))
	return c.o.self
}

// Cookies are stored in Chromium before loading the page.
func (c chromiumPage[T]) Cookies(cookies ...Cookie) *T {
	for _, ck := range cookies {
		if ck.Name == "" || ck.Domain == "" {
			c.o.fail(fmt.Errorf("cookies: name and domain are required"))
			return c.o.self
		}
	}
	c.o.setJSON("cookies", cookies)
	return c.o.self
}

// FailOnHTTPStatusCodes fails when the main page answers with one of codes.
// 499 matches every 4xx and 599 every 5xx.
func (c chromiumPage[T]) FailOnHTTPStatusCodes(codes ...int) *T {
	c.o.setJSON("failOnHttpStatusCodes", statusCodes(codes))
	return c.o.self
}

// FailOnResourceHTTPStatusCodes is FailOnHTTPStatusCodes for sub-resources.
func (c chromiumPage[T]) FailOnResourceHTTPStatusCodes(codes ...int) *T {
	c.o.setJSON("failOnResourceHttpStatusCodes", statusCodes(codes))
	return c.o.self
}

// FailOnResourceLoadingFailed fails when a sub-resource cannot be loaded.
func (c chromiumPage[T]) FailOnResourceLoadingFailed(v bool) *T {
	c.o.setBool("failOnResourceLoadingFailed", v)
	return c.o.self
}

func statusCodes(codes []int) []int {
	if codes == nil {
		return []int{}
	}
	return codes
}

// pdfOutput holds the post-processing settings every PDF-producing route
// accepts.
type pdfOutput[T any] struct {
	o *options[T]
}

// PDFA converts the result to a PDF/A format.
func (p pdfOutput[T]) PDFA(f PDFAFormat) *T {
	if !f.Valid() {
		p.o.fail(fmt.Errorf("pdfa: unknown format %q", f))
		return p.o.self
	}
	p.o.set("pdfa", string(f))
	return p.o.self
}

// PDFUA enables PDF for Universal Access.
func (p pdfOutput[T]) PDFUA(v bool) *T {
	p.o.setBool("pdfua", v)
	return p.o.self
}

// Metadata writes XMP metadata into the result.
func (p pdfOutput[T]) Metadata(md map[string]any) *T {
	p.o.setJSON("metadata", md)
	return p.o.self
}

// Flatten merges annotations and form fields into the page content.
func (p pdfOutput[T]) Flatten(v bool) *T {
	p.o.setBool("flatten", v)
	return p.o.self
}

// UserPassword is required to open the resulting PDF.
func (p pdfOutput[T]) UserPassword(pw string) *T {
	p.o.set("userPassword", pw)
	return p.o.self
}

// OwnerPassword guards permission changes on the resulting PDF.
func (p pdfOutput[T]) OwnerPassword(pw string) *T {
	p.o.set("ownerPassword", pw)
	return p.o.self
}

// Split splits the result; the response becomes a ZIP unless Unify is set.
func (p pdfOutput[T]) Split(s SplitOptions) *T {
	if s.Mode != SplitIntervals && s.Mode != SplitPages {
		p.o.fail(fmt.Errorf("splitMode: unknown value %q", s.Mode))
		return p.o.self
	}
	if s.Span == "" {
		p.o.fail(fmt.Errorf("splitSpan: required"))
		return p.o.self
	}
	p.o.set("splitMode", string(s.Mode))
	p.o.set("splitSpan", s.Span)
	p.o.setBool("splitUnify", s.Unify)
	return p.o.self
}
