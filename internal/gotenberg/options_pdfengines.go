package gotenberg

import (
	"fmt"
	"sort"
)

// PDFEngineOptions configures the merge, split, flatten, convert and
// encrypt routes. Build it with NewPDFEngineOptions.
type PDFEngineOptions struct {
	options[PDFEngineOptions]
	pdfOutput[PDFEngineOptions]
}

// NewPDFEngineOptions returns empty PDF engine options.
func NewPDFEngineOptions() *PDFEngineOptions {
	o := &PDFEngineOptions{}
	o.wire()
	return o
}

func (o *PDFEngineOptions) wire() {
	o.bind(o)
	o.pdfOutput.o = &o.options
}

// Clone returns an independent copy; files are shared by value.
func (o *PDFEngineOptions) Clone() *PDFEngineOptions {
	c := NewPDFEngineOptions()
	if o != nil {
		c.Form = o.Form.clone()
	}
	return c
}

// MetadataOptions configures the metadata read and write routes. Build it
// with NewMetadataOptions.
type MetadataOptions struct {
	options[MetadataOptions]
	entries map[string]any
}

// NewMetadataOptions returns empty metadata options.
func NewMetadataOptions() *MetadataOptions {
	o := &MetadataOptions{}
	o.bind(o)
	return o
}

// Clone returns an independent copy; files are shared by value.
func (o *MetadataOptions) Clone() *MetadataOptions {
	c := NewMetadataOptions()
	if o == nil {
		return c
	}
	c.Form = o.Form.clone()
	if o.entries != nil {
		c.entries = make(map[string]any, len(o.entries))
		for k, v := range o.entries {
			c.entries[k] = v
		}
	}
	return c
}

// Metadata records one entry to write, e.g. ("Author", "Jane").
func (o *MetadataOptions) Metadata(key string, value any) *MetadataOptions {
	if key == "" {
		o.fail(fmt.Errorf("metadata: empty key"))
		return o
	}
	if o.entries == nil {
		o.entries = make(map[string]any)
	}
	o.entries[key] = value
	return o
}

// Entries returns the keys recorded with Metadata, sorted.
func (o *MetadataOptions) Entries() []string {
	keys := make([]string, 0, len(o.entries))
	for k := range o.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
