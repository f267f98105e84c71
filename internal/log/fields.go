// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldTrace     = "trace"
	FieldRequestID = "request_id"
	FieldCommand   = "command"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Request fields
	FieldRoute      = "route"
	FieldMethod     = "method"
	FieldStatus     = "status"
	FieldAttempt    = "attempt"
	FieldDuration   = "duration"
	FieldFiles      = "files"
	FieldBytes      = "bytes"
	FieldCacheState = "cache"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
)
