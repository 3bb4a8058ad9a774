package feature

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies the category of a feature error.
type ErrorCode string

const (
	// ErrCodeType indicates a value of the wrong domain or outside a category set.
	ErrCodeType ErrorCode = "TYPE_ERROR"

	// ErrCodeUndecodable indicates a field type that can never be decoded (Tag).
	ErrCodeUndecodable ErrorCode = "UNDECODABLE"

	// ErrCodeRange indicates a non-finite or otherwise unrepresentable number.
	ErrCodeRange ErrorCode = "RANGE_ERROR"

	// ErrCodeArity indicates a count mismatch (vector length, record values).
	ErrCodeArity ErrorCode = "ARITY_ERROR"

	// ErrCodeDuplicate indicates two fields or categories sharing an identity.
	ErrCodeDuplicate ErrorCode = "DUPLICATE_FIELD"

	// ErrCodeWidth indicates a numeric chunk whose length disagrees with declared widths.
	ErrCodeWidth ErrorCode = "WIDTH_MISMATCH"

	// ErrCodeInvalidType indicates a feature type that cannot be constructed.
	ErrCodeInvalidType ErrorCode = "INVALID_TYPE"
)

// ErrorKind is the coarse classification callers branch on.
type ErrorKind string

const (
	// KindType covers domain and membership failures.
	KindType ErrorKind = "type"

	// KindValue covers numeric range and structural count failures.
	KindValue ErrorKind = "value"
)

// Kind returns the classification of an error code.
func (c ErrorCode) Kind() ErrorKind {
	switch c {
	case ErrCodeType, ErrCodeUndecodable:
		return KindType
	default:
		return KindValue
	}
}

// Error is returned by every validate, encode and decode operation.
//
// Path locates the failing value: a schema field name, optionally followed by
// vector child indices ("b[1][0]"). It is empty for errors raised directly by
// a feature type before any field context is known.
type Error struct {
	Code    ErrorCode
	Feature Kind
	Path    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Kind returns the error's classification.
func (e *Error) Kind() ErrorKind {
	return e.Code.Kind()
}

func newError(code ErrorCode, feature Kind, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Feature: feature,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewError creates an Error outside of a specific feature type.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return newError(code, "", format, args...)
}

// WithPath returns err with segment prepended to its path.
// Index segments ("[2]") attach without a separator, names with a dot.
// Errors that are not *Error are returned unchanged.
func WithPath(err error, segment string) error {
	var fe *Error
	if !errors.As(err, &fe) {
		return err
	}
	cp := *fe
	switch {
	case cp.Path == "":
		cp.Path = segment
	case strings.HasPrefix(cp.Path, "["):
		cp.Path = segment + cp.Path
	default:
		cp.Path = segment + "." + cp.Path
	}
	return &cp
}

// IsTypeError reports whether err is a TypeError-kind feature error.
func IsTypeError(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind() == KindType
	}
	return false
}

// IsValueError reports whether err is a ValueError-kind feature error,
// which includes range errors.
func IsValueError(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind() == KindValue
	}
	return false
}

// IsRangeError reports whether err is a non-finite number error.
func IsRangeError(err error) bool {
	return HasCode(err, ErrCodeRange)
}

// HasCode reports whether err is a feature error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}
