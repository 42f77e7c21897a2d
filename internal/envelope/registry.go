package envelope

import (
	"fmt"
	"sync"
)

// Registry is the schema registry of spec.md §4.1: a per-schema set of
// payload rules, registered once and enforced on every produce and consume.
type Registry struct {
	mu     sync.RWMutex
	rules  map[string]*PayloadRules
	digest map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rules:  make(map[string]*PayloadRules),
		digest: make(map[string]string),
	}
}

// Register is idempotent by (schema, rules_digest): registering the same
// schema with the same rules twice is a no-op; registering it again with
// different rules fails with SchemaConflict (schemas are append-only,
// spec.md §3.1).
func (r *Registry) Register(schema string, rules *PayloadRules) error {
	if _, ok := SchemaMajor(schema); !ok {
		return NewError(TypeMismatch, "schema", fmt.Sprintf("schema %q does not match <layer>.<entity>.<event>.v<major>", schema))
	}
	d := rules.Digest()

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.digest[schema]; ok {
		if existing != d {
			return NewError(SchemaConflict, "schema", fmt.Sprintf("schema %q already registered with different rules", schema))
		}
		return nil
	}
	r.rules[schema] = rules
	r.digest[schema] = d
	return nil
}

// Lookup returns the registered rules for a schema, if any.
func (r *Registry) Lookup(schema string) (*PayloadRules, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules, ok := r.rules[schema]
	return rules, ok
}

// Validate runs the full strict v1 validation pipeline of spec.md §4.1:
// envelope strictness (handled by Decode before this is reached), required
// field non-emptiness, schema/schema_version agreement, and payload rules.
func (r *Registry) Validate(e *Envelope) error {
	if e.EventID == "" {
		return NewError(MissingField, "event_id", "event_id must be non-empty")
	}
	if e.TraceID == "" {
		return NewError(MissingField, "trace_id", "trace_id must be non-empty")
	}
	if e.ProducedAt.IsZero() {
		return NewError(MissingField, "produced_at", "produced_at must be set")
	}
	if e.Schema == "" {
		return NewError(MissingField, "schema", "schema must be non-empty")
	}
	major, ok := SchemaMajor(e.Schema)
	if !ok {
		return NewError(TypeMismatch, "schema", fmt.Sprintf("schema %q does not match <layer>.<entity>.<event>.v<major>", e.Schema))
	}
	// Open question from spec.md §9 resolved: reject disagreement rather
	// than silently normalize.
	if e.SchemaVersion != major {
		return NewError(VersionMismatch, "schema_version", fmt.Sprintf("schema_version %d disagrees with schema %q", e.SchemaVersion, e.Schema))
	}

	rules, ok := r.Lookup(e.Schema)
	if !ok {
		// An unregistered schema has no payload contract to enforce; the
		// envelope itself is still well-formed. Callers that require a
		// closed set of schemas should check Lookup themselves.
		return nil
	}
	return rules.Validate(e.Payload)
}
