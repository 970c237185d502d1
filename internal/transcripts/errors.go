package transcripts

import (
	"errors"
	"net/http"
)

// Domain errors for transcript operations.
var (
	ErrNotFound  = errors.New("transcript not found")
	ErrDuplicate = errors.New("transcript already exists")
	ErrEmptyText = errors.New("transcript text must not be empty")
	ErrTooLarge  = errors.New("transcript exceeds maximum size")
)

// MapHTTPStatus maps transcript domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmptyText) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
