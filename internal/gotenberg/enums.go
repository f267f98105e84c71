package gotenberg

// PDFAFormat is a PDF/A conformance level.
type PDFAFormat string

const (
	PDFA1b PDFAFormat = "PDF/A-1b"
	PDFA2b PDFAFormat = "PDF/A-2b"
	PDFA3b PDFAFormat = "PDF/A-3b"
)

// Valid reports whether f is a level Gotenberg accepts.
func (f PDFAFormat) Valid() bool {
	switch f {
	case PDFA1b, PDFA2b, PDFA3b:
		return true
	}
	return false
}

// ScreenshotFormat is the image encoding of a screenshot.
type ScreenshotFormat string

const (
	FormatPNG  ScreenshotFormat = "png"
	FormatJPEG ScreenshotFormat = "jpeg"
	FormatWebP ScreenshotFormat = "webp"
)

// Valid reports whether f is a known screenshot format.
func (f ScreenshotFormat) Valid() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatWebP:
		return true
	}
	return false
}

// ContentType returns the MIME type of the encoded image.
func (f ScreenshotFormat) ContentType() string {
	return "image/" + string(f)
}

// EmulatedMediaType is the CSS media type Chromium emulates.
type EmulatedMediaType string

const (
	MediaScreen EmulatedMediaType = "screen"
	MediaPrint  EmulatedMediaType = "print"
)

// SplitMode selects how Gotenberg splits a PDF.
type SplitMode string

const (
	SplitIntervals SplitMode = "intervals"
	SplitPages     SplitMode = "pages"
)

// SplitOptions describes a split. Span is an interval length for
// SplitIntervals ("2") or a page range list for SplitPages ("1-3,5").
// Unify keeps the selected pages in a single PDF (pages mode only).
type SplitOptions struct {
	Mode  SplitMode
	Span  string
	Unify bool
}

// PaperSize is a page size in inches.
type PaperSize struct {
	Width  float64
	Height float64
}

// Common paper sizes.
var (
	PaperLetter  = PaperSize{Width: 8.5, Height: 11}
	PaperLegal   = PaperSize{Width: 8.5, Height: 14}
	PaperTabloid = PaperSize{Width: 11, Height: 17}
	PaperLedger  = PaperSize{Width: 17, Height: 11}
	PaperA0      = PaperSize{Width: 33.1, Height: 46.8}
	PaperA1      = PaperSize{Width: 23.4, Height: 33.1}
	PaperA2      = PaperSize{Width: 16.54, Height: 23.4}
	PaperA3      = PaperSize{Width: 11.7, Height: 16.54}
	PaperA4      = PaperSize{Width: 8.27, Height: 11.7}
	PaperA5      = PaperSize{Width: 5.83, Height: 8.27}
	PaperA6      = PaperSize{Width: 4.13, Height: 5.83}
)

// Margins in inches.
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Cookie is set in Chromium before the page loads.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	SameSite string `json:"sameSite,omitempty"` // Strict, Lax or None
}
