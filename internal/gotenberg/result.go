package gotenberg

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// Result is a successful Gotenberg response. The caller must Close it.
type Result struct {
	Body        io.ReadCloser
	StatusCode  int
	ContentType string
	Filename    string
	Trace       string
	Header      http.Header
}

func newResult(resp *http.Response, body io.ReadCloser) *Result {
	r := &Result{
		Body:       body,
		StatusCode: resp.StatusCode,
		Trace:      resp.Header.Get(HeaderTrace),
		Header:     resp.Header,
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			r.ContentType = mt
		} else {
			r.ContentType = ct
		}
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			r.Filename = params["filename"]
		}
	}
	return r
}

// Bytes reads the whole body and closes it.
func (r *Result) Bytes() ([]byte, error) {
	defer r.Close()
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	return data, nil
}

// WriteTo streams the body into w and closes it.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	defer r.Close()
	if r.Body == nil {
		return 0, nil
	}
	n, err := copyBuffer(w, r.Body)
	if err != nil {
		return n, fmt.Errorf("write result: %w", err)
	}
	return n, nil
}

// IsPDF reports a single PDF document.
func (r *Result) IsPDF() bool {
	return r.ContentType == "application/pdf"
}

// IsZip reports an archive of several outputs.
func (r *Result) IsZip() bool {
	return r.ContentType == "application/zip"
}

// Async reports a webhook request that Gotenberg accepted with 204.
func (r *Result) Async() bool {
	return r.StatusCode == http.StatusNoContent
}

// Close releases the body. It is safe to call more than once.
func (r *Result) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// HealthStatus is the JSON body of GET /health.
type HealthStatus struct {
	Status  string                  `json:"status"`
	Details map[string]ModuleHealth `json:"details"`
}

// ModuleHealth is the state of one Gotenberg module (chromium, libreoffice).
type ModuleHealth struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Healthy reports whether Gotenberg and every module are up.
func (h HealthStatus) Healthy() bool {
	if !strings.EqualFold(h.Status, "up") {
		return false
	}
	for _, d := range h.Details {
		if !strings.EqualFold(d.Status, "up") {
			return false
		}
	}
	return true
}
