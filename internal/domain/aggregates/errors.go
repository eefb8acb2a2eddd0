package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes aggregate failure semantics across resources.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeMergeType          ErrorCode = "merge_type"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Violation names one offending field and why it was rejected.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

const (
	ReasonRequired         = "required"
	ReasonIDExists         = "idexists"
	ReasonIDNull           = "idnull"
	ReasonIDInvalid        = "idinvalid"
	ReasonUnknownReference = "unknown reference"
	ReasonInvalidValue     = "invalid value"
)

// Error is the canonical aggregate error wrapper.
type Error struct {
	Code       ErrorCode
	Op         string
	Message    string
	Cause      error
	Violations []Violation
	Entity     string
	EntityID   string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// NewValidationError reports one or more rejected fields.
func NewValidationError(op string, violations ...Violation) error {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Reason))
	}
	return &Error{
		Code:       CodeValidation,
		Op:         strings.TrimSpace(op),
		Message:    strings.Join(parts, "; "),
		Violations: violations,
	}
}

// NewNotFoundError reports an identifier unknown to the store.
func NewNotFoundError(op, entity, id string) error {
	return &Error{
		Code:     CodeNotFound,
		Op:       strings.TrimSpace(op),
		Message:  fmt.Sprintf("%s %q not found", entity, id),
		Entity:   entity,
		EntityID: id,
	}
}

func NewConflictError(op, message string) error {
	return NewError(CodeConflict, op, message, nil)
}

// NewMergeTypeError reports a patch whose declared type differs from its target.
func NewMergeTypeError(op, target, patch string) error {
	return NewError(CodeMergeType, op, fmt.Sprintf("cannot merge %s patch into %s", patch, target), nil)
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// ViolationsOf returns the field violations carried by err, if any.
func ViolationsOf(err error) []Violation {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return nil
	}
	return aggErr.Violations
}
