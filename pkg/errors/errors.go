// Package errors holds the sentinel errors shared across the service and
// maps them onto HTTP responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrCatalogLoad   = errors.New("catalog load failed")
	ErrLexiconLoad   = errors.New("lexicon load failed")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnavailable   = errors.New("service unavailable")
	ErrInternal      = errors.New("internal error")
)

// AppError pins a status code and a client-facing message to a sentinel.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return e.Err.Error() + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return New(sentinel, statusCode, fmt.Sprintf(format, args...))
}

// classify returns the status and public message for a sentinel chain.
// Load failures are startup errors and land on 500 if they reach a request.
func classify(err error) (int, string) {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.StatusCode, appErr.Message
	case errors.Is(err, ErrMovieNotFound):
		return http.StatusNotFound, ErrMovieNotFound.Error()
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, ErrInvalidInput.Error()
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, ErrUnavailable.Error()
	default:
		return http.StatusInternalServerError, ErrInternal.Error()
	}
}

// HTTPStatusCode maps an error chain to the status a handler should answer with.
func HTTPStatusCode(err error) int {
	code, _ := classify(err)
	return code
}

// PublicMessage returns the text safe to show a client for err.
func PublicMessage(err error) string {
	_, msg := classify(err)
	return msg
}
