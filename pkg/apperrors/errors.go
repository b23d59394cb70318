package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures into the four domains callers act on.
type Kind string

const (
	// KindConnectionFailure means the database could not be reached or
	// authenticated. Fatal before any introspection happens.
	KindConnectionFailure Kind = "connection_failure"

	// KindMetadataExtraction means a catalog read failed or a foreign key
	// references a table the model does not know about. Per-table failures
	// are recorded as data; dangling references are fatal.
	KindMetadataExtraction Kind = "metadata_extraction"

	// KindNamingConflict means two entities or enums resolved to the same
	// generated name. Always fatal.
	KindNamingConflict Kind = "naming_conflict"

	// KindConfigurationInvalid means a strategy, threshold, or pattern is
	// outside its allowed domain. Checked eagerly, before any connection.
	KindConfigurationInvalid Kind = "configuration_invalid"
)

// Error is the engine's tagged error. Kind carries the failure domain,
// Err the underlying cause (may be nil for domain-originated failures).
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with no underlying cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of err, or "" if err is not an engine Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) is an engine Error of
// the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
