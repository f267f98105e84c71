// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys for Gotenberg client spans.
const (
	RouteKey      = "gotenberg.route"
	EngineKey     = "gotenberg.engine"
	TraceKey      = "gotenberg.trace"
	FilesKey      = "gotenberg.files"
	EmbedsKey     = "gotenberg.embeds"
	AttemptKey    = "gotenberg.attempt"
	StatusCodeKey = "http.status_code"
	CacheHitKey   = "gotenberg.cache_hit"

	ErrorTypeKey = "error.type"
)

// RequestAttributes describes a Gotenberg form submission.
func RequestAttributes(route, engine, trace string, files, embeds int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(RouteKey, route),
		attribute.String(EngineKey, engine),
		attribute.Int(FilesKey, files),
	}
	if embeds > 0 {
		attrs = append(attrs, attribute.Int(EmbedsKey, embeds))
	}
	if trace != "" {
		attrs = append(attrs, attribute.String(TraceKey, trace))
	}
	return attrs
}

// ResultAttributes describes the outcome of one attempt.
func ResultAttributes(attempt, statusCode int, errType string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttemptKey, attempt),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int(StatusCodeKey, statusCode))
	}
	if errType != "" {
		attrs = append(attrs, attribute.String(ErrorTypeKey, errType))
	}
	return attrs
}
