package httpapi

import (
	"errors"
	"net/http"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/gin-gonic/gin"
)

// writeError translates a domain error into a JSON error response. The
// kind determines the status code; the message carries the detail.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrForbiddenState):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the log, not the response.
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
