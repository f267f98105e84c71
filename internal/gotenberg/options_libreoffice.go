package gotenberg

import "fmt"

// LibreOfficeOptions configures /forms/libreoffice/convert. Build it with
// NewLibreOfficeOptions.
type LibreOfficeOptions struct {
	options[LibreOfficeOptions]
	pdfOutput[LibreOfficeOptions]
}

// NewLibreOfficeOptions returns empty LibreOffice options.
func NewLibreOfficeOptions() *LibreOfficeOptions {
	o := &LibreOfficeOptions{}
	o.wire()
	return o
}

func (o *LibreOfficeOptions) wire() {
	o.bind(o)
	o.pdfOutput.o = &o.options
}

// Clone returns an independent copy; files are shared by value.
func (o *LibreOfficeOptions) Clone() *LibreOfficeOptions {
	c := NewLibreOfficeOptions()
	if o != nil {
		c.Form = o.Form.clone()
	}
	return c
}

var maxImageResolutions = map[int]bool{75: true, 150: true, 300: true, 600: true, 1200: true}

// Password opens a protected source document.
func (o *LibreOfficeOptions) Password(pw string) *LibreOfficeOptions {
	o.set("password", pw)
	return o
}

// Landscape sets the paper orientation.
func (o *LibreOfficeOptions) Landscape(v bool) *LibreOfficeOptions {
	o.setBool("landscape", v)
	return o
}

// NativePageRanges selects pages to export, e.g. "1-4".
func (o *LibreOfficeOptions) NativePageRanges(ranges string) *LibreOfficeOptions {
	o.set("nativePageRanges", ranges)
	return o
}

// UpdateIndexes refreshes tables of contents before export.
func (o *LibreOfficeOptions) UpdateIndexes(v bool) *LibreOfficeOptions {
	o.setBool("updateIndexes", v)
	return o
}

// ExportFormFields keeps form fields as widgets.
func (o *LibreOfficeOptions) ExportFormFields(v bool) *LibreOfficeOptions {
	o.setBool("exportFormFields", v)
	return o
}

func (o *LibreOfficeOptions) AllowDuplicateFieldNames(v bool) *LibreOfficeOptions {
	o.setBool("allowDuplicateFieldNames", v)
	return o
}

func (o *LibreOfficeOptions) ExportBookmarks(v bool) *LibreOfficeOptions {
	o.setBool("exportBookmarks", v)
	return o
}

func (o *LibreOfficeOptions) ExportBookmarksToPDFDestination(v bool) *LibreOfficeOptions {
	o.setBool("exportBookmarksToPdfDestination", v)
	return o
}

func (o *LibreOfficeOptions) ExportPlaceholders(v bool) *LibreOfficeOptions {
	o.setBool("exportPlaceholders", v)
	return o
}

func (o *LibreOfficeOptions) ExportNotes(v bool) *LibreOfficeOptions {
	o.setBool("exportNotes", v)
	return o
}

func (o *LibreOfficeOptions) ExportNotesPages(v bool) *LibreOfficeOptions {
	o.setBool("exportNotesPages", v)
	return o
}

func (o *LibreOfficeOptions) ExportOnlyNotesPages(v bool) *LibreOfficeOptions {
	o.setBool("exportOnlyNotesPages", v)
	return o
}

func (o *LibreOfficeOptions) ExportNotesInMargin(v bool) *LibreOfficeOptions {
	o.setBool("exportNotesInMargin", v)
	return o
}

func (o *LibreOfficeOptions) ConvertOooTargetToPDFTarget(v bool) *LibreOfficeOptions {
	o.setBool("convertOooTargetToPdfTarget", v)
	return o
}

func (o *LibreOfficeOptions) ExportLinksRelativeFsys(v bool) *LibreOfficeOptions {
	o.setBool("exportLinksRelativeFsys", v)
	return o
}

func (o *LibreOfficeOptions) ExportHiddenSlides(v bool) *LibreOfficeOptions {
	o.setBool("exportHiddenSlides", v)
	return o
}

func (o *LibreOfficeOptions) SkipEmptyPages(v bool) *LibreOfficeOptions {
	o.setBool("skipEmptyPages", v)
	return o
}

// AddOriginalDocumentAsStream embeds the source document in the PDF.
func (o *LibreOfficeOptions) AddOriginalDocumentAsStream(v bool) *LibreOfficeOptions {
	o.setBool("addOriginalDocumentAsStream", v)
	return o
}

// SinglePageSheets puts each spreadsheet sheet on one page.
func (o *LibreOfficeOptions) SinglePageSheets(v bool) *LibreOfficeOptions {
	o.setBool("singlePageSheets", v)
	return o
}

func (o *LibreOfficeOptions) LosslessImageCompression(v bool) *LibreOfficeOptions {
	o.setBool("losslessImageCompression", v)
	return o
}

// Quality of JPEG export, 1 to 100.
func (o *LibreOfficeOptions) Quality(q int) *LibreOfficeOptions {
	if q < 1 || q > 100 {
		o.fail(fmt.Errorf("quality: %d out of range [1, 100]", q))
		return o
	}
	o.setInt("quality", q)
	return o
}

func (o *LibreOfficeOptions) ReduceImageResolution(v bool) *LibreOfficeOptions {
	o.setBool("reduceImageResolution", v)
	return o
}

// MaxImageResolution in DPI: 75, 150, 300, 600 or 1200.
func (o *LibreOfficeOptions) MaxImageResolution(dpi int) *LibreOfficeOptions {
	if !maxImageResolutions[dpi] {
		o.fail(fmt.Errorf("maxImageResolution: %d not one of 75, 150, 300, 600, 1200", dpi))
		return o
	}
	o.setInt("maxImageResolution", dpi)
	return o
}

// Merge combines all converted documents into one PDF, in filename order.
func (o *LibreOfficeOptions) Merge(v bool) *LibreOfficeOptions {
	o.setBool("merge", v)
	return o
}
