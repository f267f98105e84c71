// SPDX-License-Identifier: MIT

// Package gotenbergtest provides an in-process fake Gotenberg for tests.
package gotenbergtest

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// MinimalPDF is the body returned for every PDF-producing route.
var MinimalPDF = []byte("%PDF-1.4\n1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Count 0/Kids[]>>endobj\ntrailer<</Root 1 0 R>>\n%%EOF\n")

// DefaultVersion is answered on GET /version.
const DefaultVersion = "8.20.1"

// File is a file part received by the server.
type File struct {
	Part        string // "files" or "embeds"
	Name        string
	ContentType string
	Data        []byte
}

// Request is a recorded submission.
type Request struct {
	Method string
	Route  string
	Header http.Header
	Fields map[string][]string
	Files  []File
}

// Field returns the first value of a form field.
func (r Request) Field(name string) string {
	if v := r.Fields[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// FileNames returns the names of the parts submitted under part.
func (r Request) FileNames(part string) []string {
	var out []string
	for _, f := range r.Files {
		if f.Part == part {
			out = append(out, f.Name)
		}
	}
	return out
}

// Failure is a canned error response.
type Failure struct {
	Status int
	Body   string
	Delay  time.Duration
}

// Server is a fake Gotenberg. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	failures map[string][]Failure
	username string
	password string
	version  string
	down     bool
	metadata map[string]any
}

// Option configures a Server.
type Option func(*Server)

// WithBasicAuth requires credentials on every route.
func WithBasicAuth(username, password string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// WithVersion overrides the version string.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New starts a fake Gotenberg. Close it when done.
func New(opts ...Option) *Server {
	s := &Server{
		failures: make(map[string][]Failure),
		version:  DefaultVersion,
		metadata: map[string]any{"Author": "gotenbergtest", "PDFVersion": 1.4},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.traceEcho)
	r.Use(s.basicAuth)

	r.With(s.injectFailures).Get("/health", s.handleHealth)
	r.With(s.injectFailures).Get("/version", s.handleVersion)

	r.Route("/forms", func(r chi.Router) {
		r.Use(s.record)
		r.Use(s.injectFailures)
		r.Post("/chromium/convert/html", s.requireFile("index.html", s.handleDocument))
		r.Post("/chromium/convert/url", s.requireField("url", s.handleDocument))
		r.Post("/chromium/convert/markdown", s.requireFile("index.html", s.handleDocument))
		r.Post("/chromium/screenshot/html", s.requireFile("index.html", s.handleScreenshot))
		r.Post("/chromium/screenshot/url", s.requireField("url", s.handleScreenshot))
		r.Post("/chromium/screenshot/markdown", s.requireFile("index.html", s.handleScreenshot))
		r.Post("/libreoffice/convert", s.requireAnyFile(s.handleDocument))
		r.Post("/pdfengines/merge", s.requireAnyFile(s.handleMerge))
		r.Post("/pdfengines/split", s.requireAnyFile(s.handleDocument))
		r.Post("/pdfengines/flatten", s.requireAnyFile(s.handleDocument))
		r.Post("/pdfengines/convert", s.requireAnyFile(s.handleDocument))
		r.Post("/pdfengines/encrypt", s.requireAnyFile(s.handleDocument))
		r.Post("/pdfengines/metadata/read", s.requireAnyFile(s.handleReadMetadata))
		r.Post("/pdfengines/metadata/write", s.requireField("metadata", s.handleDocument))
	})
	return r
}

// FailNext queues failures for route (e.g. "/forms/pdfengines/merge").
// Each queued failure answers one request; later requests succeed. Failed
// form submissions are still recorded.
func (s *Server) FailNext(route string, failures ...Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failures...)
}

// SetDown makes /health report Gotenberg as down.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// SetMetadata replaces the metadata returned for every file.
func (s *Server) SetMetadata(md map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = md
}

// Requests returns the recorded form submissions in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent submission.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Count returns how many submissions hit route.
func (s *Server) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Route == route {
			n++
		}
	}
	return n
}

// Reset forgets recorded requests and pending failures.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.failures = make(map[string][]Failure)
	s.down = false
}

func (s *Server) traceEcho(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tr := r.Header.Get("Gotenberg-Trace"); tr != "" {
			w.Header().Set("Gotenberg-Trace", tr)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.username != "" || s.password != "" {
			u, p, ok := r.BasicAuth()
			if !ok || u != s.username || p != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="Gotenberg"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		queue := s.failures[r.URL.Path]
		var f *Failure
		if len(queue) > 0 {
			f = &queue[0]
			s.failures[r.URL.Path] = queue[1:]
		}
		s.mu.Unlock()

		if f == nil {
			next.ServeHTTP(w, r)
			return
		}
		if f.Delay > 0 {
			select {
			case <-time.After(f.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if f.Status == 0 {
			next.ServeHTTP(w, r)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		body := f.Body
		if body == "" {
			body = http.StatusText(f.Status)
		}
		http.Error(w, body, f.Status)
	})
}

// record parses the multipart form and stores it.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "Invalid form data: "+err.Error(), http.StatusBadRequest)
			return
		}
		req := Request{
			Method: r.Method,
			Route:  r.URL.Path,
			Header: r.Header.Clone(),
			Fields: make(map[string][]string, len(r.MultipartForm.Value)),
		}
		for k, v := range r.MultipartForm.Value {
			req.Fields[k] = append([]string(nil), v...)
		}
		for _, part := range []string{"files", "embeds"} {
			for _, fh := range r.MultipartForm.File[part] {
				fd, err := fh.Open()
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				data, err := io.ReadAll(fd)
				_ = fd.Close()
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				req.Files = append(req.Files, File{
					Part:        part,
					Name:        fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Data:        data,
				})
			}
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireFile(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, fh := range r.MultipartForm.File["files"] {
			if fh.Filename == name {
				h(w, r)
				return
			}
		}
		http.Error(w, fmt.Sprintf("Invalid form data: form file '%s' is required", name), http.StatusBadRequest)
	}
}

func (s *Server) requireField(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue(name) == "" {
			http.Error(w, fmt.Sprintf("Invalid form data: form field '%s' is required", name), http.StatusBadRequest)
			return
		}
		h(w, r)
	}
}

func (s *Server) requireAnyFile(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(r.MultipartForm.File["files"]) == 0 {
			http.Error(w, "Invalid form data: no form file found for extensions", http.StatusBadRequest)
			return
		}
		h(w, r)
	}
}

// webhook answers 204 when the request asked for asynchronous delivery.
func webhook(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Gotenberg-Webhook-Url") == "" {
		return false
	}
	w.WriteHeader(http.StatusNoContent)
	return true
}

func outputName(r *http.Request, ext string) string {
	name := r.Header.Get("Gotenberg-Output-Filename")
	if name == "" {
		name = r.Header.Get("Gotenberg-Trace")
	}
	if name == "" {
		name = "result"
	}
	return name + ext
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if webhook(w, r) {
		return
	}
	files := r.MultipartForm.File["files"]
	split := r.FormValue("splitMode") != "" && r.FormValue("splitUnify") != "true"
	multi := len(files) > 1 && r.FormValue("merge") != "true" && !strings.HasPrefix(r.URL.Path, "/forms/chromium/")
	if split || multi {
		names := make([]string, 0, len(files))
		for _, fh := range files {
			names = append(names, strings.TrimSuffix(fh.Filename, fileExt(fh.Filename))+".pdf")
		}
		if len(names) == 0 {
			names = []string{"result.pdf"}
		}
		writeZip(w, outputName(r, ".zip"), names)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, outputName(r, ".pdf")))
	_, _ = w.Write(MinimalPDF)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	if webhook(w, r) {
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, outputName(r, ".pdf")))
	_, _ = w.Write(MinimalPDF)
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if webhook(w, r) {
		return
	}
	format := r.FormValue("format")
	if format == "" {
		format = "png"
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	w.Header().Set("Content-Type", "image/"+format)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, outputName(r, "."+format)))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleReadMetadata(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	md := s.metadata
	s.mu.Unlock()
	out := make(map[string]map[string]any)
	for _, fh := range r.MultipartForm.File["files"] {
		out[fh.Filename] = md
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	down := s.down
	s.mu.Unlock()

	status, code := "up", http.StatusOK
	if down {
		status, code = "down", http.StatusServiceUnavailable
	}
	now := time.Now().UTC().Truncate(time.Second)
	body := map[string]any{
		"status": status,
		"details": map[string]any{
			"chromium":    map[string]any{"status": status, "timestamp": now},
			"libreoffice": map[string]any{"status": "up", "timestamp": now},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	_, _ = io.WriteString(w, s.version)
}

func writeZip(w http.ResponseWriter, name string, entries []string) {
	sort.Strings(entries)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := zw.Create(e)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = fw.Write(MinimalPDF)
	}
	if err := zw.Close(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	_, _ = w.Write(buf.Bytes())
}

func fileExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
