package httpx

import (
	"bytes"
	"io"
	"net/http"

	"github.com/diewo77/bookbuddy/internal/apperr"
)

const maxBodyBytes = 1 << 20

var ErrMalformedBody = apperr.New(apperr.KindValidation, "malformed_body", "Request body must be valid JSON")

// DecodeJSON reads a JSON request body into dst. An empty body leaves dst
// untouched; anything unparsable is a validation error.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return ErrMalformedBody
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if !json.Valid(body) {
		return ErrMalformedBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return ErrMalformedBody
	}
	return nil
}
