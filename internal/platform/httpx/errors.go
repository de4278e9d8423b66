// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Sentinel errors for the HTTP layer. Not-found and duplicate conditions are
// the shared domain sentinels so services can return repository errors
// unwrapped.
var (
	ErrNotFound     = shared.ErrNotFound
	ErrDuplicate    = shared.ErrDuplicate
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = shared.ErrForbidden
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807. Policy
// denials carry their own status: malformed input is a caller bug (400),
// everything else in the deny taxonomy is 403. The reason code travels in
// the problem detail; the engine's free-text detail stays in the logs.
func RespondError(w http.ResponseWriter, err error) {
	var denied *policy.DeniedError
	if errors.As(err, &denied) {
		if denied.Decision.Reason == policy.ReasonMalformedInput {
			Problem(w, http.StatusBadRequest, "Bad Request", string(denied.Decision.Reason))
			return
		}
		Problem(w, http.StatusForbidden, "Forbidden", string(denied.Decision.Reason))
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
