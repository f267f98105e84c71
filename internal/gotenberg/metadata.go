package gotenberg

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	xglog "github.com/ManuGH/gotenberg-client/internal/log"
	"github.com/ManuGH/gotenberg-client/internal/metrics"
	"github.com/ManuGH/gotenberg-client/internal/ratelimit"
)

// Metadata maps a file name to its metadata entries.
type Metadata map[string]map[string]any

// maxMetadataBody bounds the JSON read from the metadata route.
const maxMetadataBody = 8 << 20

// ReadMetadata returns the metadata of each PDF in opts. Results are cached
// by file content when a cache is configured and every file is replayable.
func (c *Client) ReadMetadata(ctx context.Context, opts *MetadataOptions) (Metadata, error) {
	const op = "read_metadata"
	o := opts.Clone()
	if len(o.files) == 0 {
		return nil, c.invalid(op, ErrNoInput, errors.New("at least one PDF is required"))
	}

	key := ""
	if c.cache != nil {
		if o.replayable() {
			k, err := metadataKey(o.files)
			if err != nil {
				return nil, c.invalid(op, ErrNoInput, err)
			}
			key = k
		} else {
			metrics.RecordCacheLookup("skip")
		}
	}
	if key != "" {
		if data, ok := c.cache.Get(ctx, key); ok {
			var md Metadata
			if err := json.Unmarshal(data, &md); err == nil {
				metrics.RecordCacheLookup("hit")
				lg := xglog.WithContext(ctx, c.logger)
				lg.Debug().
					Str(xglog.FieldCacheState, "hit").
					Int(xglog.FieldFiles, len(o.files)).
					Msg("metadata served from cache")
				return md, nil
			}
			c.cache.Delete(ctx, key)
		}
		metrics.RecordCacheLookup("miss")
	}

	res, err := c.post(ctx, op, RouteReadMetadata, ratelimit.EnginePDF, acceptJSON, &o.Form)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, maxMetadataBody))
	if err != nil {
		return nil, &Error{Sentinel: ErrBadResponse, Operation: op, Trace: res.Trace, Err: err}
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, &Error{Sentinel: ErrBadResponse, Operation: op, Trace: res.Trace, Err: err}
	}
	if key != "" {
		c.cache.Set(ctx, key, data, c.cacheTTL)
	}
	return md, nil
}

// WriteMetadata writes the entries recorded with MetadataOptions.Metadata
// into every PDF in opts.
func (c *Client) WriteMetadata(ctx context.Context, opts *MetadataOptions) (*Result, error) {
	const op = "write_metadata"
	o := opts.Clone()
	if len(o.files) == 0 {
		return nil, c.invalid(op, ErrNoInput, errors.New("at least one PDF is required"))
	}
	if len(o.entries) == 0 {
		return nil, c.invalid(op, ErrBadRequest, errors.New("no metadata entries"))
	}
	o.setJSON("metadata", o.entries)
	return c.post(ctx, op, RouteWriteMetadata, ratelimit.EnginePDF, acceptDocument, &o.Form)
}

// metadataKey hashes the names and contents of files in order.
func metadataKey(files []File) (string, error) {
	h := sha256.New()
	for _, f := range files {
		d, err := f.digest()
		if err != nil {
			return "", err
		}
		h.Write(d)
	}
	return "metadata:" + hex.EncodeToString(h.Sum(nil)), nil
}

// Health queries GET /health. It is sent once and bypasses the circuit
// breaker, so an open circuit can still be probed. When Gotenberg reports
// itself down the decoded status is returned with an ErrUnavailable error.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	const op = "health"
	resp, traceID, err := c.send(ctx, request{
		op:     op,
		method: http.MethodGet,
		route:  RouteHealth,
		engine: ratelimit.EngineSystem,
		accept: acceptJSON,
		probe:  true,
	})
	if err != nil {
		var gerr *Error
		if errors.As(err, &gerr) && gerr.Status == http.StatusServiceUnavailable {
			var hs HealthStatus
			if json.Unmarshal([]byte(gerr.Body), &hs) == nil && hs.Status != "" {
				return &hs, err
			}
		}
		return nil, err
	}
	defer resp.Body.Close()
	var hs HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&hs); err != nil {
		return nil, &Error{Sentinel: ErrBadResponse, Operation: op, Trace: traceID, Err: fmt.Errorf("decode health: %w", err)}
	}
	return &hs, nil
}
