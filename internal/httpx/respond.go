// Package httpx holds the JSON plumbing and middleware shared by all handlers.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
)

func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	json.NewEncoder(w).Encode(body)
}

// Error writes err as {"error": msg} with the status its kind maps to.
// Internal causes are logged, never written.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path, "request_id", RequestID(r), "err", err)
	}
	Respond(w, status, map[string]string{"error": apperr.PublicMessage(err)})
}
