package envelope

import "fmt"

// ValidationKind classifies why Validate rejected an envelope (spec.md §4.1).
type ValidationKind string

const (
	UnknownField    ValidationKind = "UnknownField"
	MissingField    ValidationKind = "MissingField"
	TypeMismatch    ValidationKind = "TypeMismatch"
	PayloadInvalid  ValidationKind = "PayloadInvalid"
	SchemaConflict  ValidationKind = "SchemaConflict"
	VersionMismatch ValidationKind = "VersionMismatch"
)

// Error is a ContractViolation: an envelope or payload that failed
// validation. Path is the field path for payload-level errors (e.g.
// "payload.price"); it is empty for envelope-level errors.
type Error struct {
	Kind   ValidationKind
	Path   string
	Reason string
}

func NewError(kind ValidationKind, path, reason string) *Error {
	return &Error{Kind: kind, Path: path, Reason: reason}
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Reason)
}

// IsContractViolation reports whether err is an envelope Error (used by
// callers that only need to distinguish ContractViolation from other
// failure classes per spec.md §7).
func IsContractViolation(err error) bool {
	_, ok := err.(*Error)
	return ok
}
