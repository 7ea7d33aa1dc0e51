package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads a JSON body into dst. Malformed input is a validation error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.ValidationErr("request body is required")
		}
		return apperr.ValidationErr("invalid JSON body")
	}
	return nil
}
