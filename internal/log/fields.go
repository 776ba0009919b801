// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService   = "service"
	FieldVersion   = "version"
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// State fields
	FieldOldState  = "old_state"
	FieldNewState  = "new_state"
	FieldStatus    = "status"
	FieldLifecycle = "lifecycle"

	// Ordering fields
	FieldProducedAt   = "produced_at_ms"
	FieldLastAccepted = "last_accepted_ms"

	// Network fields
	FieldAddress   = "address"
	FieldPort      = "port"
	FieldInterface = "interface"
	FieldReachable = "reachable"

	// Config fields
	FieldKey  = "key"
	FieldPath = "path"
)
