package gotenberg

import (
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// Multipart part names used by Gotenberg.
const (
	partFiles  = "files"
	partEmbeds = "embeds"
)

// Request headers understood by Gotenberg.
const (
	HeaderTrace                   = "Gotenberg-Trace"
	HeaderOutputFilename          = "Gotenberg-Output-Filename"
	HeaderWebhookURL              = "Gotenberg-Webhook-Url"
	HeaderWebhookErrorURL         = "Gotenberg-Webhook-Error-Url"
	HeaderWebhookMethod           = "Gotenberg-Webhook-Method"
	HeaderWebhookErrorMethod      = "Gotenberg-Webhook-Error-Method"
	HeaderWebhookExtraHTTPHeaders = "Gotenberg-Webhook-Extra-Http-Headers"
)

// FormField is a single non-file form value.
type FormField struct {
	Name  string
	Value string
}

// Form is the ordered content of a multipart submission. Scalar values
// replace earlier values of the same name; files and embeds accumulate.
type Form struct {
	fields []FormField
	files  []File
	embeds []File
	header http.Header
	err    error
}

// Value returns the first value of a field.
func (f *Form) Value(name string) (string, bool) {
	for _, fld := range f.fields {
		if fld.Name == name {
			return fld.Value, true
		}
	}
	return "", false
}

// Values returns every value of a field in insertion order.
func (f *Form) Values(name string) []string {
	var out []string
	for _, fld := range f.fields {
		if fld.Name == name {
			out = append(out, fld.Value)
		}
	}
	return out
}

// Fields returns a copy of all non-file fields in insertion order.
func (f *Form) Fields() []FormField {
	out := make([]FormField, len(f.fields))
	copy(out, f.fields)
	return out
}

// FileParts returns the files submitted as "files".
func (f *Form) FileParts() []File {
	out := make([]File, len(f.files))
	copy(out, f.files)
	return out
}

// EmbedParts returns the files submitted as "embeds".
func (f *Form) EmbedParts() []File {
	out := make([]File, len(f.embeds))
	copy(out, f.embeds)
	return out
}

// Header returns the per-request headers. The returned map is a copy.
func (f *Form) Header() http.Header {
	return f.header.Clone()
}

// Err returns the first invalid value recorded by a setter.
func (f *Form) Err() error {
	return f.err
}

func (f *Form) set(name, value string) {
	out := f.fields[:0]
	replaced := false
	for _, fld := range f.fields {
		if fld.Name != name {
			out = append(out, fld)
			continue
		}
		if !replaced {
			out = append(out, FormField{Name: name, Value: value})
			replaced = true
		}
	}
	f.fields = out
	if !replaced {
		f.fields = append(f.fields, FormField{Name: name, Value: value})
	}
}

func (f *Form) add(name, value string) {
	f.fields = append(f.fields, FormField{Name: name, Value: value})
}

func (f *Form) setBool(name string, v bool) {
	f.set(name, strconv.FormatBool(v))
}

func (f *Form) setInt(name string, v int) {
	f.set(name, strconv.Itoa(v))
}

func (f *Form) setFloat(name string, v float64) {
	f.set(name, strconv.FormatFloat(v, 'f', -1, 64))
}

func (f *Form) setDuration(name string, d time.Duration) {
	f.set(name, formatDuration(d))
}

func (f *Form) setJSON(name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		f.fail(fmt.Errorf("%s: %w", name, err))
		return
	}
	f.set(name, string(data))
}

func (f *Form) setHeader(name, value string) {
	if f.header == nil {
		f.header = make(http.Header)
	}
	f.header.Set(name, value)
}

func (f *Form) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *Form) has(name string) bool {
	_, ok := f.Value(name)
	return ok
}

func (f *Form) hasFile(name string) bool {
	for _, file := range f.files {
		if file.Name == name {
			return true
		}
	}
	return false
}

func (f *Form) replayable() bool {
	for _, file := range f.files {
		if !file.Replayable() {
			return false
		}
	}
	for _, file := range f.embeds {
		if !file.Replayable() {
			return false
		}
	}
	return true
}

// checkReaders fails when a reader-backed file was already sent.
func (f *Form) checkReaders() error {
	for _, file := range append(f.files[:len(f.files):len(f.files)], f.embeds...) {
		if file.spent() {
			return fmt.Errorf("%s: %w", file.Name, ErrFileConsumed)
		}
	}
	return nil
}

func (f Form) clone() Form {
	c := Form{
		fields: append([]FormField(nil), f.fields...),
		files:  append([]File(nil), f.files...),
		embeds: append([]File(nil), f.embeds...),
		header: f.header.Clone(),
		err:    f.err,
	}
	return c
}

// write encodes the form; fields first, then files, then embeds.
func (f *Form) write(mw *multipart.Writer) error {
	for _, fld := range f.fields {
		if err := mw.WriteField(fld.Name, fld.Value); err != nil {
			return fmt.Errorf("write field %s: %w", fld.Name, err)
		}
	}
	for _, file := range f.files {
		if err := writeFilePart(mw, partFiles, file); err != nil {
			return err
		}
	}
	for _, file := range f.embeds {
		if err := writeFilePart(mw, partEmbeds, file); err != nil {
			return err
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, part string, file File) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(part), quoteEscaper.Replace(file.Name)))
	contentType := mime.TypeByExtension(file.Ext())
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", file.Name, err)
	}
	if _, err := copyBuffer(w, rc); err != nil {
		return fmt.Errorf("write part %s: %w", file.Name, err)
	}
	return nil
}

// formatDuration renders d the way Gotenberg parses durations ("5s", "500ms").
func formatDuration(d time.Duration) string {
	if d%time.Second == 0 {
		return strconv.FormatInt(int64(d/time.Second), 10) + "s"
	}
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}

// Webhook asks Gotenberg to upload the result asynchronously instead of
// returning it. Gotenberg answers such requests with 204 No Content.
type Webhook struct {
	URL          string
	ErrorURL     string
	Method       string // POST (default), PATCH or PUT
	ErrorMethod  string
	ExtraHeaders map[string]string
}

// options is the part of every builder shared across routes. T is the
// concrete builder type so chained calls keep their static type.
type options[T any] struct {
	Form
	self *T
}

// File appends an input document.
func (o *options[T]) File(f File) *T {
	o.files = append(o.files, f)
	return o.self
}

// Files appends several input documents.
func (o *options[T]) Files(files ...File) *T {
	o.files = append(o.files, files...)
	return o.self
}

// Embed appends a file to attach to the resulting PDF.
func (o *options[T]) Embed(f File) *T {
	o.embeds = append(o.embeds, f)
	return o.self
}

// Embeds appends several attachments.
func (o *options[T]) Embeds(files ...File) *T {
	o.embeds = append(o.embeds, files...)
	return o.self
}

// Field adds a raw form value. Prefer the typed setters.
func (o *options[T]) Field(name, value string) *T {
	o.add(name, value)
	return o.self
}

// Trace sets the Gotenberg-Trace header; a random one is used otherwise.
func (o *options[T]) Trace(id string) *T {
	o.setHeader(HeaderTrace, id)
	return o.self
}

// OutputFilename sets the filename Gotenberg puts in Content-Disposition.
func (o *options[T]) OutputFilename(name string) *T {
	o.setHeader(HeaderOutputFilename, name)
	return o.self
}

// Webhook switches the request to asynchronous delivery.
func (o *options[T]) Webhook(w Webhook) *T {
	if w.URL == "" || w.ErrorURL == "" {
		o.fail(fmt.Errorf("webhook: both URL and ErrorURL are required"))
		return o.self
	}
	o.setHeader(HeaderWebhookURL, w.URL)
	o.setHeader(HeaderWebhookErrorURL, w.ErrorURL)
	if w.Method != "" {
		o.setHeader(HeaderWebhookMethod, strings.ToUpper(w.Method))
	}
	if w.ErrorMethod != "" {
		o.setHeader(HeaderWebhookErrorMethod, strings.ToUpper(w.ErrorMethod))
	}
	if len(w.ExtraHeaders) > 0 {
		data, err := json.Marshal(w.ExtraHeaders)
		if err != nil {
			o.fail(fmt.Errorf("webhook extra headers: %w", err))
			return o.self
		}
		o.setHeader(HeaderWebhookExtraHTTPHeaders, string(data))
	}
	return o.self
}

func (o *options[T]) bind(self *T) {
	o.self = self
}
