package asset

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindSerialization   Kind = "Serialization"
	KindDeserialization Kind = "Deserialization"
	KindTypeNotFound    Kind = "TypeNotFound"
	KindCompilation     Kind = "Compilation"
	KindIO              Kind = "IO"
)

// Error is the structured error returned by compile and load operations.
//
// RuleID is a stable identifier (e.g. ASSET-TYP-001) naming the failed
// check. TypeName is the wire tag of the offending entry when one is known.
// Message is intended for humans; do not match on it.
type Error struct {
	Kind     Kind
	RuleID   string
	TypeName string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError returns a structured error without a cause.
func NewError(kind Kind, ruleID, typeName, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, TypeName: typeName, Message: msg}
}

// WrapError returns a structured error carrying cause. A nil cause is
// equivalent to NewError.
func WrapError(kind Kind, ruleID, typeName, msg string, cause error) error {
	return &Error{Kind: kind, RuleID: ruleID, TypeName: typeName, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// TypeNameOfError returns the type name carried by a structured error, or "".
func TypeNameOfError(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.TypeName
}
