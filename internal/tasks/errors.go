package tasks

import (
	"errors"
	"net/http"

	"github.com/careline/triage/internal/pipeline"
	"github.com/careline/triage/internal/transcripts"
)

// Domain errors for task operations.
var (
	ErrNotFound           = errors.New("task not found")
	ErrDuplicate          = errors.New("task already exists")
	ErrTranscriptTooShort = errors.New("transcript too short to process")
)

// MapHTTPStatus maps task domain and pipeline errors to HTTP status codes.
// Pipeline failures are server faults regardless of kind; only a rejected
// verdict, which is not an error, surfaces as 422 (handled by the handler).
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, transcripts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrTranscriptTooShort):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrContextUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
