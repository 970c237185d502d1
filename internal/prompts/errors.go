package prompts

import (
	"errors"
	"net/http"
)

// Domain errors for prompt operations.
var (
	ErrNotFound      = errors.New("prompt not found")
	ErrDuplicate     = errors.New("prompt already exists")
	ErrInvalidStage  = errors.New("invalid pipeline stage")
	ErrRenderFailed  = errors.New("instruction render failed")
	ErrUnknownVar    = errors.New("instruction references unknown variable")
	ErrEmptyTemplate = errors.New("instructions must not be empty")
)

// MapHTTPStatus maps prompt domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidStage) || errors.Is(err, ErrUnknownVar) || errors.Is(err, ErrEmptyTemplate) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
