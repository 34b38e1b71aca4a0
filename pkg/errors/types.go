// Package errors provides structured error handling for the protocol
// engine. It defines error types that map to JSON-RPC error codes and
// carry enough context to build wire-level error responses.
package errors

import (
	"encoding/json"
	"fmt"
)

// Category classifies an error for handling decisions. The categories
// mirror the engine's error taxonomy: parse and validation failures are
// recoverable locally, sequencing failures concern the session state
// machine, negotiation failures concern the handshake, and application
// errors originate outside the engine and pass through opaquely.
type Category string

const (
	CategoryParse       Category = "parse"
	CategoryValidation  Category = "validation"
	CategorySequencing  Category = "sequencing"
	CategoryNegotiation Category = "negotiation"
	CategoryApplication Category = "application"
	CategoryInternal    Category = "internal"
)

// ProtocolError is the interface implemented by all engine errors.
type ProtocolError interface {
	error

	// Code returns the JSON-RPC error code
	Code() int

	// Message returns a human-readable error message
	Message() string

	// Detail returns a technical description for debugging
	Detail() string

	// Data returns structured error data for the wire-level "data" field
	Data() interface{}

	// Category returns the error category for classification
	Category() Category

	// WithDetail returns a copy of the error with additional detail
	WithDetail(detail string) ProtocolError

	// WithData returns a copy of the error with structured data
	WithData(data interface{}) ProtocolError

	// Unwrap returns the underlying error for error chain traversal
	Unwrap() error
}

type baseError struct {
	code     int
	message  string
	detail   string
	data     interface{}
	category Category
	cause    error
}

func (e *baseError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("%s: %s", e.message, e.detail)
	}
	return e.message
}

func (e *baseError) Code() int          { return e.code }
func (e *baseError) Message() string    { return e.message }
func (e *baseError) Detail() string     { return e.detail }
func (e *baseError) Data() interface{}  { return e.data }
func (e *baseError) Category() Category { return e.category }
func (e *baseError) Unwrap() error      { return e.cause }

func (e *baseError) WithDetail(detail string) ProtocolError {
	newErr := *e
	if newErr.detail != "" {
		newErr.detail = fmt.Sprintf("%s; %s", newErr.detail, detail)
	} else {
		newErr.detail = detail
	}
	return &newErr
}

func (e *baseError) WithData(data interface{}) ProtocolError {
	newErr := *e
	newErr.data = data
	return &newErr
}

// MarshalJSON emits the wire form of the error object.
func (e *baseError) MarshalJSON() ([]byte, error) {
	obj := map[string]interface{}{
		"code":    e.code,
		"message": e.message,
	}
	if e.data != nil {
		obj["data"] = e.data
	}
	return json.Marshal(obj)
}

// New creates a ProtocolError with the given code and message. The
// category is looked up from the code registry.
func New(code int, message string) ProtocolError {
	return &baseError{
		code:     code,
		message:  message,
		category: GetCodeCategory(code),
	}
}

// Newf creates a ProtocolError with a formatted message.
func Newf(code int, format string, args ...interface{}) ProtocolError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error as a ProtocolError.
func Wrap(err error, code int, message string) ProtocolError {
	return &baseError{
		code:     code,
		message:  message,
		category: GetCodeCategory(code),
		cause:    err,
	}
}

// AsProtocolError extracts a ProtocolError from any error.
func AsProtocolError(err error) (ProtocolError, bool) {
	if err == nil {
		return nil, false
	}
	if perr, ok := err.(ProtocolError); ok {
		return perr, true
	}
	return nil, false
}

// IsCategory checks if an error is of a specific category.
func IsCategory(err error, category Category) bool {
	if perr, ok := AsProtocolError(err); ok {
		return perr.Category() == category
	}
	return false
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code int) bool {
	if perr, ok := AsProtocolError(err); ok {
		return perr.Code() == code
	}
	return false
}
