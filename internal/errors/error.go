package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the subsystem an error originates from.
type Category string

const (
	CategoryBuffer   Category = "buffer"
	CategoryProtocol Category = "protocol"
	CategoryInfo     Category = "info"
	CategoryChecksum Category = "checksum"
	CategoryDemo     Category = "demo"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Kind separates structural violations from degraded content.
type Kind uint8

const (
	KindSoft  Kind = iota // content problem, caller may continue
	KindFatal             // structural violation, abort the operation
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSoft:
		return "soft"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a structured codec error.
type Error struct {
	// Code is a unique error identifier (e.g., "B001").
	Code string

	// Category is the originating subsystem.
	Category Category

	// Kind tells the caller whether the failure is fatal.
	Kind Kind

	// Message is a short description of the error.
	Message string

	// Detail carries the values involved (sizes, numbers, keys).
	Detail string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// IsFatal returns true if this error should abort the current operation.
func (e *Error) IsFatal() bool {
	return e.Kind == KindFatal
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Kind:    KindFatal,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Kind:     template.Kind,
		Message:  template.Message,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, kind Kind, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// IsFatal reports whether err carries a fatal *Error anywhere in its chain.
func IsFatal(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Kind == KindFatal
}

// IsSoft reports whether err carries a soft *Error anywhere in its chain.
func IsSoft(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Kind == KindSoft
}

// CodeOf returns the registered code in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if !stderrors.As(err, &e) {
		return ""
	}
	return e.Code
}
