package gotenberg

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// ErrFileConsumed is returned when a reader-backed File is sent twice.
var ErrFileConsumed = errors.New("gotenberg: reader-backed file already consumed")

// File is a named part of a Gotenberg form. Gotenberg infers the document
// type from the file extension, so Name must carry one.
type File struct {
	Name string

	data     []byte
	path     string
	reader   io.Reader
	consumed *atomic.Bool
}

// FileFromBytes wraps in-memory content.
func FileFromBytes(name string, data []byte) File {
	return File{Name: name, data: data}
}

// FileFromString wraps UTF-8 text content.
func FileFromString(name, content string) File {
	return File{Name: name, data: []byte(content)}
}

// FileFromReader wraps a stream. It can be sent once; requests carrying it
// are never retried.
func FileFromReader(name string, r io.Reader) File {
	return File{Name: name, reader: r, consumed: new(atomic.Bool)}
}

// FileFromPath reads the file at path when the request is sent. The part is
// named after the base name of path.
func FileFromPath(path string) File {
	return File{Name: filepath.Base(path), path: path}
}

// FileFromPathAs is FileFromPath with an explicit part name.
func FileFromPathAs(name, path string) File {
	return File{Name: name, path: path}
}

// Replayable reports whether the content can be sent more than once.
func (f File) Replayable() bool {
	return f.reader == nil
}

func (f File) spent() bool {
	return f.reader != nil && f.consumed.Load()
}

// Ext returns the lower-cased extension of the part name, including the dot.
func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Open returns the content of the file.
func (f File) Open() (io.ReadCloser, error) {
	switch {
	case f.reader != nil:
		if f.consumed.Swap(true) {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrFileConsumed)
		}
		if rc, ok := f.reader.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(f.reader), nil
	case f.path != "":
		// #nosec G304 -- paths are supplied by the caller
		fh, err := os.Open(f.path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		return fh, nil
	default:
		return io.NopCloser(bytes.NewReader(f.data)), nil
	}
}

// digest hashes the name and content of a replayable file.
func (f File) digest() ([]byte, error) {
	if !f.Replayable() {
		return nil, fmt.Errorf("%s: %w", f.Name, ErrFileConsumed)
	}
	h := sha256.New()
	h.Write([]byte(f.Name))
	h.Write([]byte{0})
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if _, err := io.Copy(h, rc); err != nil {
		return nil, fmt.Errorf("hash %s: %w", f.Name, err)
	}
	return h.Sum(nil), nil
}
