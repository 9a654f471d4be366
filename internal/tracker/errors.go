package tracker

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service errors for callers that map them to exit
// codes or HTTP statuses.
type ErrorKind string

const (
	// KindValidation means the request was rejected and nothing was written.
	KindValidation ErrorKind = "VALIDATION"

	// KindNotFound means the requested part or plan does not exist.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindStorage means the event log could not be read or written.
	KindStorage ErrorKind = "STORAGE"

	// KindConflict means the request clashes with current state.
	KindConflict ErrorKind = "CONFLICT"
)

// Error codes carried in Error.Code.
const (
	CodeInvalidPartNumber   = "INVALID_PART_NUMBER"
	CodeTypeMismatch        = "TYPE_MISMATCH"
	CodeInvalidPolarization = "INVALID_POLARIZATION"
	CodeSelfConnection      = "SELF_CONNECTION"
	CodeIllegalOrder        = "ILLEGAL_ORDER"
	CodeInvalidCount        = "INVALID_COUNT"
	CodeSerialsExhausted    = "SERIALS_EXHAUSTED"
	CodeUnknownKind         = "UNKNOWN_KIND"
	CodeMissingReason       = "MISSING_REASON"
	CodeAlreadyConnected    = "ALREADY_CONNECTED"
	CodePlanStale           = "PLAN_STALE"
	CodePlanNotFound        = "PLAN_NOT_FOUND"
	CodePartNotFound        = "PART_NOT_FOUND"
	CodeStorageFailure      = "STORAGE_FAILURE"
)

// Error is the structured error returned by every Service operation.
type Error struct {
	// Kind is the broad category.
	Kind ErrorKind

	// Code identifies the specific failure.
	Code string

	// Message is a human-readable description.
	Message string

	// PartNumber is the part the error concerns, if any.
	PartNumber string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.PartNumber != "" {
		msg += fmt.Sprintf(" (part=%s)", e.PartNumber)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(code, part, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, PartNumber: part, Message: fmt.Sprintf(format, args...)}
}

func storageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Code: CodeStorageFailure, Message: op, Err: err}
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the code of err, or "" if err is not an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsStorage reports whether err is a storage failure.
func IsStorage(err error) bool {
	return KindOf(err) == KindStorage
}

// IsConflict reports whether err is a state conflict.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}
