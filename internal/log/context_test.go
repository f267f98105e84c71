// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
	}{
		{name: "nil context", ctx: nil, id: "req-1"},
		{name: "background context", ctx: context.Background(), id: "req-2"},
		{name: "empty id", ctx: context.Background(), id: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//nolint:staticcheck // nil context is part of the contract
			ctx := ContextWithRequestID(tt.ctx, tt.id)
			assert.Equal(t, tt.id, RequestIDFromContext(ctx))
		})
	}
}

func TestTraceFromContext_Missing(t *testing.T) {
	assert.Empty(t, TraceFromContext(context.Background()))
	//nolint:staticcheck
	assert.Empty(t, TraceFromContext(nil))
}

func TestWithContext_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	ctx := ContextWithTrace(ContextWithRequestID(context.Background(), "rid"), "trace-1")
	enriched := WithContext(ctx, l)
	enriched.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "rid", entry[FieldRequestID])
	assert.Equal(t, "trace-1", entry[FieldTrace])
}

func TestWithContext_NoFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	out := WithContext(context.Background(), l)
	out.Info().Msg("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, hasTrace := entry[FieldTrace]
	assert.False(t, hasTrace)
}
