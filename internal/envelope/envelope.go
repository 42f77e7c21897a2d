// Package envelope defines the event envelope invariant across every stream
// in the pipeline (spec.md §3.1) and the strict v1 validator (spec.md §4.1).
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Envelope is the fixed-shape wrapper every event carries. Unknown top-level
// fields are rejected by Decode, the strict unmarshal path.
type Envelope struct {
	EventID       string          `json:"event_id"`
	TraceID       string          `json:"trace_id"`
	ProducedAt    time.Time       `json:"produced_at"`
	Schema        string          `json:"schema"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
	SourceService string          `json:"source_service,omitempty"`
}

var schemaPattern = regexp.MustCompile(`^[a-z0-9_]+\.[a-z0-9_]+\.[a-z0-9_]+\.v([0-9]+)$`)

// SchemaMajor extracts the <major> suffix from a schema string. ok is false
// if the schema does not match the <layer>.<entity>.<event>.v<major> shape.
// A dlq.<schema> name wrapping a well-formed schema reports major 1, the
// fixed version of every DLQ envelope.
func SchemaMajor(schema string) (major int, ok bool) {
	if IsDLQStream(schema) {
		if _, ok := SchemaMajor(strings.TrimPrefix(schema, "dlq.")); !ok {
			return 0, false
		}
		return 1, true
	}
	m := schemaPattern.FindStringSubmatch(schema)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// DLQSchema returns the dlq.<orig_schema> name for wrapping (spec.md §4.3.3).
func DLQSchema(origSchema string) string {
	return "dlq." + origSchema
}

// DLQStream returns the dlq.<stream> name for a base stream (spec.md §3.2).
func DLQStream(stream string) string {
	if strings.HasPrefix(stream, "dlq.") {
		return stream // DLQs must not have further DLQs.
	}
	return "dlq." + stream
}

// IsDLQStream reports whether a stream name is itself a DLQ stream.
func IsDLQStream(stream string) bool {
	return strings.HasPrefix(stream, "dlq.")
}

// Encode marshals the envelope to its wire form.
func Encode(e *Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Decode strictly unmarshals bytes into an Envelope: unknown top-level
// fields or a malformed document both surface as a ContractViolation
// (never a partially populated Envelope — spec.md §8.2).
func Decode(b []byte) (*Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	var raw struct {
		EventID       *string          `json:"event_id"`
		TraceID       *string          `json:"trace_id"`
		ProducedAt    *string          `json:"produced_at"`
		Schema        *string          `json:"schema"`
		SchemaVersion *int             `json:"schema_version"`
		Payload       json.RawMessage  `json:"payload"`
		SourceService *string          `json:"source_service"`
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, NewError(UnknownField, "", fmt.Sprintf("decode envelope: %v", err))
	}

	e := &Envelope{Payload: raw.Payload}
	if raw.EventID != nil {
		e.EventID = *raw.EventID
	}
	if raw.TraceID != nil {
		e.TraceID = *raw.TraceID
	}
	if raw.Schema != nil {
		e.Schema = *raw.Schema
	}
	if raw.SchemaVersion != nil {
		e.SchemaVersion = *raw.SchemaVersion
	}
	if raw.SourceService != nil {
		e.SourceService = *raw.SourceService
	}
	if raw.ProducedAt != nil {
		t, err := time.Parse(time.RFC3339Nano, *raw.ProducedAt)
		if err != nil {
			return nil, NewError(TypeMismatch, "produced_at", fmt.Sprintf("parse timestamp: %v", err))
		}
		if _, offset := t.Zone(); offset == 0 && !hasExplicitOffset(*raw.ProducedAt) {
			return nil, NewError(TypeMismatch, "produced_at", "timestamp must carry an explicit timezone offset")
		}
		e.ProducedAt = t
	}
	return e, nil
}

// hasExplicitOffset distinguishes "Z" / "+00:00" (explicit) from a bare
// local-time string that RFC3339Nano happens to still parse.
func hasExplicitOffset(s string) bool {
	return strings.HasSuffix(s, "Z") || regexp.MustCompile(`[+-]\d{2}:\d{2}$`).MatchString(s)
}

// floatIsInvalid reports NaN/±Inf, which are always invalid payload values
// regardless of declared range (spec.md §4.1).
func floatIsInvalid(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
