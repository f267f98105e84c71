package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	"github.com/google/renameio/v2"
)

// writeResult stores res at path and returns where it went. "-" streams to
// stdout; an empty path falls back to the server supplied filename.
func writeResult(res *gotenberg.Result, path string, stdout io.Writer) (string, error) {
	defer res.Close()

	if res.Async() {
		return "", nil
	}
	if path == "-" {
		if _, err := res.WriteTo(stdout); err != nil {
			return "", err
		}
		return "-", nil
	}
	if path == "" {
		path = defaultName(res)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("create pending output file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := res.WriteTo(pending); err != nil {
		return "", err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return path, nil
}

func defaultName(res *gotenberg.Result) string {
	if res.Filename != "" {
		if name := filepath.Base(res.Filename); name != "." && name != string(filepath.Separator) {
			return name
		}
	}
	return "result" + extension(res)
}

func extension(res *gotenberg.Result) string {
	switch {
	case res.IsZip():
		return ".zip"
	case res.IsPDF():
		return ".pdf"
	}
	switch res.ContentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "application/json":
		return ".json"
	}
	return ".bin"
}

// report prints the outcome of one write on stderr so stdout stays clean
// for piped results.
func (c *cli) report(res *gotenberg.Result, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch path {
	case "":
		fmt.Fprintf(c.stderr, "accepted (trace %s), result will be delivered to the webhook\n", res.Trace)
	case "-":
	default:
		fmt.Fprintf(c.stderr, "wrote %s (trace %s)\n", path, res.Trace)
	}
}

func (c *cli) save(res *gotenberg.Result, path string) error {
	written, err := writeResult(res, path, c.stdout)
	if err != nil {
		return err
	}
	c.report(res, written)
	return nil
}
