package httpx

import (
	"errors"
	"net/http"

	"github.com/campus-atrium/atrium/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Forbidden and bad-request responses carry the reason for the specific
// rule that fired; unauthorized responses are deliberately uniform.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Invalid Credentials", "invalid credentials")
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.Reason(err))
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", shared.Reason(err))
	case errors.Is(err, shared.ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Bad Request", shared.Reason(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
