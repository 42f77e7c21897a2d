package envelope

import (
	"encoding/json"
	"fmt"
)

// FieldType enumerates the primitive payload field types the rules engine
// understands (spec.md §4.1: "per-field primitive type").
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeBool   FieldType = "bool"
	TypeObject FieldType = "object"
	TypeArray  FieldType = "array"
)

// FieldRule describes the validation applied to one payload field.
type FieldRule struct {
	Type FieldType

	// Required, when true, rejects a missing field with MissingField.
	Required bool

	// MaxLength bounds string length; zero means unbounded.
	MaxLength int

	// Min/Max bound numeric fields; MaxSet/MinSet gate whether they apply
	// (zero is a valid bound, e.g. volume >= 0).
	Min, Max       float64
	MinSet, MaxSet bool

	// Enum, when non-empty, restricts a string field to the given set.
	Enum []string

	// Nested validates an object-typed field's own fields.
	Nested *PayloadRules
}

// PayloadRules is the registered shape for one schema's payload (spec.md §4.1).
type PayloadRules struct {
	Fields map[string]FieldRule
	// Strict, when true (the default for v1 schemas), rejects any payload
	// field not named in Fields.
	Strict bool
}

// Digest returns a stable fingerprint of the rule set, used by Registry to
// detect a conflicting re-registration of the same schema name.
func (r *PayloadRules) Digest() string {
	b, _ := json.Marshal(r)
	return fmt.Sprintf("%x", b)
}

// Validate applies PayloadRules to a decoded payload object.
func (r *PayloadRules) Validate(payload json.RawMessage) error {
	var m map[string]json.RawMessage
	if len(payload) == 0 {
		m = map[string]json.RawMessage{}
	} else if err := json.Unmarshal(payload, &m); err != nil {
		return NewError(TypeMismatch, "payload", fmt.Sprintf("payload must be an object: %v", err))
	}

	if r.Strict {
		for name := range m {
			if _, ok := r.Fields[name]; !ok {
				return NewError(UnknownField, "payload."+name, "field is not declared for this schema")
			}
		}
	}

	for name, rule := range r.Fields {
		raw, present := m[name]
		if !present {
			if rule.Required {
				return NewError(MissingField, "payload."+name, "required field is missing")
			}
			continue
		}
		if err := validateField("payload."+name, raw, rule); err != nil {
			return err
		}
	}
	return nil
}

func validateField(path string, raw json.RawMessage, rule FieldRule) error {
	switch rule.Type {
	case TypeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return NewError(TypeMismatch, path, "expected string")
		}
		if rule.MaxLength > 0 && len(s) > rule.MaxLength {
			return NewError(PayloadInvalid, path, fmt.Sprintf("exceeds max length %d", rule.MaxLength))
		}
		if len(rule.Enum) > 0 && !contains(rule.Enum, s) {
			return NewError(PayloadInvalid, path, fmt.Sprintf("value %q not in allowed set %v", s, rule.Enum))
		}
	case TypeNumber:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return NewError(TypeMismatch, path, "expected number")
		}
		if floatIsInvalid(f) {
			return NewError(PayloadInvalid, path, "NaN/Inf values are always invalid")
		}
		if rule.MinSet && f < rule.Min {
			return NewError(PayloadInvalid, path, fmt.Sprintf("value %v below minimum %v", f, rule.Min))
		}
		if rule.MaxSet && f > rule.Max {
			return NewError(PayloadInvalid, path, fmt.Sprintf("value %v above maximum %v", f, rule.Max))
		}
	case TypeBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return NewError(TypeMismatch, path, "expected bool")
		}
	case TypeArray:
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return NewError(TypeMismatch, path, "expected array")
		}
	case TypeObject:
		if rule.Nested == nil {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(raw, &obj); err != nil {
				return NewError(TypeMismatch, path, "expected object")
			}
			return nil
		}
		if err := rule.Nested.Validate(raw); err != nil {
			return err
		}
	default:
		return NewError(TypeMismatch, path, fmt.Sprintf("unknown declared type %q", rule.Type))
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
