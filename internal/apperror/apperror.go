package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
)

// HTTPError carries a status code and a user facing detail message.
// Err is one of the kinds above so callers can match with errors.Is.
type HTTPError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *HTTPError) Error() string {
	return e.Detail
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func Unauthorized(detail string) *HTTPError {
	return &HTTPError{StatusCode: http.StatusUnauthorized, Detail: detail, Err: ErrUnauthorized}
}

func Forbidden(detail string) *HTTPError {
	return &HTTPError{StatusCode: http.StatusForbidden, Detail: detail, Err: ErrForbidden}
}

func NotFound(detail string) *HTTPError {
	return &HTTPError{StatusCode: http.StatusNotFound, Detail: detail, Err: ErrNotFound}
}

func Conflict(detail string) *HTTPError {
	return &HTTPError{StatusCode: http.StatusConflict, Detail: detail, Err: ErrConflict}
}

func Validation(detail string) *HTTPError {
	return &HTTPError{StatusCode: http.StatusBadRequest, Detail: detail, Err: ErrValidation}
}

// StatusOf returns the HTTP status for err, or 500 when err carries none.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode > 0 {
		return httpErr.StatusCode
	}
	return http.StatusInternalServerError
}
