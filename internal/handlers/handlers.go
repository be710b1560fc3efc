// Package handlers exposes the library API as JSON over net/http.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/bookbuddy/auth"
	"github.com/diewo77/bookbuddy/internal/apperr"
)

var errInvalidID = apperr.New(apperr.KindValidation, "invalid_id", "Invalid id")

// pathID parses a positive numeric path value.
func pathID(r *http.Request, name string) (uint, error) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, errInvalidID
	}
	return uint(n), nil
}

// currentUser returns the authenticated caller. Routes that call it sit behind
// the capability middleware, so a missing id is a wiring error.
func currentUser(r *http.Request) uint {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

type successResponse struct {
	Success bool `json:"success"`
}
