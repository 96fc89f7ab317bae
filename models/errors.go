package models

import (
	"errors"
	"net/http"
)

type ErrorKind string

const (
	KindInvalidArgument ErrorKind = "InvalidArgument"
	KindUnauthenticated ErrorKind = "Unauthenticated"
	KindForbidden       ErrorKind = "Forbidden"
	KindNotFound        ErrorKind = "NotFound"
	KindConflict        ErrorKind = "Conflict"
	KindRateLimited     ErrorKind = "RateLimited"
)

// APIError is a domain failure that is safe to show to the caller.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Is matches any APIError of the same kind, so errors.Is(err, models.ErrForbidden) works.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidArgument = &APIError{Kind: KindInvalidArgument, StatusCode: http.StatusBadRequest}
	ErrUnauthenticated = &APIError{Kind: KindUnauthenticated, StatusCode: http.StatusUnauthorized}
	ErrForbidden       = &APIError{Kind: KindForbidden, StatusCode: http.StatusForbidden}
	ErrNotFound        = &APIError{Kind: KindNotFound, StatusCode: http.StatusNotFound}
	ErrConflict        = &APIError{Kind: KindConflict, StatusCode: http.StatusConflict}
)

func InvalidArgument(msg string, details ...string) *APIError {
	return &APIError{Kind: KindInvalidArgument, StatusCode: http.StatusBadRequest, Message: msg, Errors: details}
}

func Unauthenticated(msg string) *APIError {
	return &APIError{Kind: KindUnauthenticated, StatusCode: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *APIError {
	return &APIError{Kind: KindForbidden, StatusCode: http.StatusForbidden, Message: msg}
}

func NotFound(msg string) *APIError {
	return &APIError{Kind: KindNotFound, StatusCode: http.StatusNotFound, Message: msg}
}

func Conflict(msg string) *APIError {
	return &APIError{Kind: KindConflict, StatusCode: http.StatusConflict, Message: msg}
}

func TooManyRequests(msg string) *APIError {
	return &APIError{Kind: KindRateLimited, StatusCode: http.StatusTooManyRequests, Message: msg}
}

// AlreadyMember is a Conflict reported with HTTP 400.
func AlreadyMember() *APIError {
	return &APIError{Kind: KindConflict, StatusCode: http.StatusBadRequest, Message: "User is already a member of this project"}
}

// AsAPIError unwraps err to an *APIError if it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
