package goerror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested account or object could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the write collides with existing data.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents infrastructure failures (store, object storage, crypto setup).
	TypeServer Type = iota
	// TypeBusiness represents rule violations such as a duplicate account.
	TypeBusiness
	// TypeValidation represents malformed or invalid input.
	TypeValidation
)

// String returns the string representation of the error type.
func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier callers can switch on.
type Code int

const (
	// CodeInternal represents an internal or unspecified error.
	CodeInternal Code = iota
	// CodeInvalidFormat indicates input that could not be parsed.
	CodeInvalidFormat
	// CodeInvalidInput indicates parsed input that failed validation.
	CodeInvalidInput
	// CodeNotFound indicates a missing resource.
	CodeNotFound
	// CodeConflict indicates a duplicate.
	CodeConflict
	// CodeUnsupported indicates a recognized but unsupported variant (hotp, backup v2).
	CodeUnsupported
	// CodeUnauthorized indicates a wrong password.
	CodeUnauthorized
	// CodeUnavailable indicates an optional backend that is not configured.
	CodeUnavailable
)

// String returns the string representation of the error code.
func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeUnsupported:
		return "ERROR_CODE_UNSUPPORTED"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeUnavailable:
		return "ERROR_CODE_UNAVAILABLE"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error is a structured error used across the application.
//
// It wraps an underlying error, usually a package sentinel, while also
// carrying a user-facing message, a type and a stable code. errors.Is and
// errors.As see through it.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	default:
		return "Unknown error"
	}
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.msg,
		e.err,
	)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Code returns the stable error code.
func (e *Error) Code() Code {
	return e.code
}

// Fields returns validation errors (field to message map), if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

func new(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return new(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a business-type error wrapping err.
func NewBusiness(err error, code Code) error {
	return new(err, err.Error(), TypeBusiness, code)
}

// NewInvalidInput creates a validation error. When err carries a field map
// (see validator.V10ValidationError) it is exposed through Fields.
func NewInvalidInput(err error, kv ...string) error {
	e := &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}

	var fe interface{ Values() map[string]string }
	if errors.As(err, &fe) {
		e.fields = fe.Values()
	}

	if len(kv)%2 != 0 {
		return new(err, "Invalid input", TypeValidation, CodeInvalidFormat)
	}

	for i := 0; i+1 < len(kv); i += 2 {
		if e.fields == nil {
			e.fields = make(map[string]string)
		}
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// NewInvalidFormat creates a validation error for input that could not be
// parsed, wrapping the parser's sentinel.
func NewInvalidFormat(err error) error {
	return new(err, err.Error(), TypeValidation, CodeInvalidFormat)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
