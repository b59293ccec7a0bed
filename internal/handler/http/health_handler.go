package http

import (
	"database/sql"
	"net/http"
)

// HealthHandler backs liveness/readiness probes; readiness pings the
// database since that's the one dependency that can silently wedge a
// process a plain liveness check wouldn't catch.
type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondOK(w, map[string]string{"status": "ok"})
}
