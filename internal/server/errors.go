package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-site/internal/retrieval"
)

// Fixed client-facing error texts. Detail goes to the log, never to the response.
const (
	msgInvalidRequest = "Invalid request"
	msgQueryFailed    = "Failed to answer the question"
	msgNoContext      = "No relevant information found"
	msgRenderFailed   = "Failed to render page"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, retrieval.ErrNoContext):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
