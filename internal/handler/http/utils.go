package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shiftledger/internal/apperr"
)

// respondJSON writes data as a JSON body with the given status code. Error
// responses go through middleware.WriteError instead, so this package
// carries only the success-path helpers.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON decodes a request body into dst, rejecting unknown fields so
// typos in client payloads surface as validation errors rather than being
// silently ignored.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return apperr.Validation("request body is required", nil)
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperr.Validation("invalid request body", map[string]string{"body": err.Error()})
	}
	return nil
}

// pathParam reads a chi URL parameter.
func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func queryParam(r *http.Request, name, defaultValue string) string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	return v
}
