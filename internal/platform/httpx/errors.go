package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/meridian-pos/meridian/internal/shared"
)

// ErrValidation marks request payloads rejected before any mutation.
var ErrValidation = errors.New("validation failed")

// RespondError maps common errors to HTTP problem responses. Module handlers
// map their own sentinels first and fall back to this.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		Problem(w, http.StatusServiceUnavailable, "Timed Out", "the request was aborted before completing; retry")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
