package httpx

import (
	"net/http"

	"github.com/diewo77/bookbuddy/internal/apperr"
	"github.com/diewo77/bookbuddy/internal/logging"
)

const internalMessage = "Internal server error"

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindBusinessRule, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as the standard envelope. Anything that is not an
// *apperr.Error is logged and answered with a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		logging.FromContext(r.Context()).WithError(err).
			WithField("path", r.URL.Path).
			Error("request failed")
		JSONError(w, http.StatusInternalServerError, internalMessage, nil)
		return
	}
	var details any
	if len(e.Details) > 0 {
		details = e.Details
	}
	JSONError(w, StatusFor(e.Kind), e.Message, details)
}
