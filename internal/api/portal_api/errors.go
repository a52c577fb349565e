package portal_api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/apperr"
)

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the apperr taxonomy onto status codes. Storage details are
// logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := apperr.IsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Error(), Fields: ve.Fields})
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Package not found"})
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: "Tracking code conflict, please retry"})
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
	}
}
