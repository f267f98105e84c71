package gotenberg

import "fmt"

// ChromiumConvertOptions configures the Chromium HTML, URL and Markdown
// conversions. Build it with NewChromiumConvertOptions.
type ChromiumConvertOptions struct {
	options[ChromiumConvertOptions]
	chromiumPage[ChromiumConvertOptions]
	pdfOutput[ChromiumConvertOptions]
}

// NewChromiumConvertOptions returns empty conversion options.
func NewChromiumConvertOptions() *ChromiumConvertOptions {
	o := &ChromiumConvertOptions{}
	o.wire()
	return o
}

func (o *ChromiumConvertOptions) wire() {
	o.bind(o)
	o.chromiumPage.o = &o.options
	o.pdfOutput.o = &o.options
}

// Clone returns an independent copy; files are shared by value.
func (o *ChromiumConvertOptions) Clone() *ChromiumConvertOptions {
	c := NewChromiumConvertOptions()
	if o != nil {
		c.Form = o.Form.clone()
	}
	return c
}

// SinglePage prints the whole document on one page.
func (o *ChromiumConvertOptions) SinglePage(v bool) *ChromiumConvertOptions {
	o.setBool("singlePage", v)
	return o
}

// PaperSize sets paperWidth and paperHeight in inches.
func (o *ChromiumConvertOptions) PaperSize(size PaperSize) *ChromiumConvertOptions {
	if size.Width <= 0 || size.Height <= 0 {
		o.fail(fmt.Errorf("paper size: dimensions must be positive, got %gx%g", size.Width, size.Height))
		return o
	}
	o.setFloat("paperWidth", size.Width)
	o.setFloat("paperHeight", size.Height)
	return o
}

// Margins sets the four page margins in inches.
func (o *ChromiumConvertOptions) Margins(m Margins) *ChromiumConvertOptions {
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		o.fail(fmt.Errorf("margins: must not be negative"))
		return o
	}
	o.setFloat("marginTop", m.Top)
	o.setFloat("marginBottom", m.Bottom)
	o.setFloat("marginLeft", m.Left)
	o.setFloat("marginRight", m.Right)
	return o
}

// PreferCSSPageSize lets @page rules override the paper size.
func (o *ChromiumConvertOptions) PreferCSSPageSize(v bool) *ChromiumConvertOptions {
	o.setBool("preferCssPageSize", v)
	return o
}

// GenerateDocumentOutline embeds the heading outline.
func (o *ChromiumConvertOptions) GenerateDocumentOutline(v bool) *ChromiumConvertOptions {
	o.setBool("generateDocumentOutline", v)
	return o
}

// GenerateTaggedPDF produces an accessible, tagged PDF.
func (o *ChromiumConvertOptions) GenerateTaggedPDF(v bool) *ChromiumConvertOptions {
	o.setBool("generateTaggedPdf", v)
	return o
}

// PrintBackground prints background graphics.
func (o *ChromiumConvertOptions) PrintBackground(v bool) *ChromiumConvertOptions {
	o.setBool("printBackground", v)
	return o
}

// Landscape sets the paper orientation.
func (o *ChromiumConvertOptions) Landscape(v bool) *ChromiumConvertOptions {
	o.setBool("landscape", v)
	return o
}

// Scale is the page rendering scale, between 0.1 and 2.
func (o *ChromiumConvertOptions) Scale(v float64) *ChromiumConvertOptions {
	if v < 0.1 || v > 2 {
		o.fail(fmt.Errorf("scale: %g out of range [0.1, 2]", v))
		return o
	}
	o.setFloat("scale", v)
	return o
}

// NativePageRanges selects pages to print, e.g. "1-5, 8".
func (o *ChromiumConvertOptions) NativePageRanges(ranges string) *ChromiumConvertOptions {
	o.set("nativePageRanges", ranges)
	return o
}

// ChromiumScreenshotOptions configures the Chromium screenshot routes.
// Build it with NewChromiumScreenshotOptions.
type ChromiumScreenshotOptions struct {
	options[ChromiumScreenshotOptions]
	chromiumPage[ChromiumScreenshotOptions]
}

// NewChromiumScreenshotOptions returns empty screenshot options.
func NewChromiumScreenshotOptions() *ChromiumScreenshotOptions {
	o := &ChromiumScreenshotOptions{}
	o.wire()
	return o
}

func (o *ChromiumScreenshotOptions) wire() {
	o.bind(o)
	o.chromiumPage.o = &o.options
}

// Clone returns an independent copy; files are shared by value.
func (o *ChromiumScreenshotOptions) Clone() *ChromiumScreenshotOptions {
	c := NewChromiumScreenshotOptions()
	if o != nil {
		c.Form = o.Form.clone()
	}
	return c
}

// Width of the viewport in pixels.
func (o *ChromiumScreenshotOptions) Width(px int) *ChromiumScreenshotOptions {
	if px <= 0 {
		o.fail(fmt.Errorf("width: must be positive, got %d", px))
		return o
	}
	o.setInt("width", px)
	return o
}

// Height of the viewport in pixels.
func (o *ChromiumScreenshotOptions) Height(px int) *ChromiumScreenshotOptions {
	if px <= 0 {
		o.fail(fmt.Errorf("height: must be positive, got %d", px))
		return o
	}
	o.setInt("height", px)
	return o
}

// Clip limits the capture to the viewport instead of the full page.
func (o *ChromiumScreenshotOptions) Clip(v bool) *ChromiumScreenshotOptions {
	o.setBool("clip", v)
	return o
}

// Format selects the image encoding.
func (o *ChromiumScreenshotOptions) Format(f ScreenshotFormat) *ChromiumScreenshotOptions {
	if !f.Valid() {
		o.fail(fmt.Errorf("format: unknown value %q", f))
		return o
	}
	o.set("format", string(f))
	return o
}

// Quality of a JPEG or WebP capture, 0 to 100.
func (o *ChromiumScreenshotOptions) Quality(q int) *ChromiumScreenshotOptions {
	if q < 0 || q > 100 {
		o.fail(fmt.Errorf("quality: %d out of range [0, 100]", q))
		return o
	}
	o.setInt("quality", q)
	return o
}

// OptimizeForSpeed trades image size for encoding speed.
func (o *ChromiumScreenshotOptions) OptimizeForSpeed(v bool) *ChromiumScreenshotOptions {
	o.setBool("optimizeForSpeed", v)
	return o
}
