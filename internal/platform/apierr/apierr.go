package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a transport-level failure raised before a request reaches an aggregate,
// e.g. an unreadable body or an unsupported media type.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code, msg string) *Error {
	return New(http.StatusBadRequest, code, errors.New(msg))
}

func UnsupportedMediaType(contentType string) *Error {
	return New(http.StatusUnsupportedMediaType, "unsupportedmediatype", fmt.Errorf("content type %q is not supported", contentType))
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
