package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

type HealthHandler struct {
	db      *sql.DB
	started time.Time
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if !h.ping(r) {
		respond(w, http.StatusServiceUnavailable, "", map[string]string{
			"status":   "degraded",
			"database": "down",
		})
		return
	}

	respond(w, http.StatusOK, "", map[string]string{
		"status":   "ok",
		"database": "up",
	})
}

func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	database := "up"
	status := "ok"
	code := http.StatusOK
	if !h.ping(r) {
		database = "down"
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respond(w, code, "", map[string]any{
		"status":        status,
		"database":      database,
		"uptimeSeconds": int(time.Since(h.started).Seconds()),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports whether the service can take traffic, which here means the
// database answers.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.ping(r) {
		respond(w, http.StatusServiceUnavailable, "", map[string]string{"status": "not_ready"})
		return
	}
	respond(w, http.StatusOK, "", map[string]string{"status": "ready"})
}

// Live only proves the process is serving requests.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "", map[string]string{"status": "alive"})
}

func (h *HealthHandler) ping(r *http.Request) bool {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	return h.db.PingContext(ctx) == nil
}
