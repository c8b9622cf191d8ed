package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"clinic-api/internal/model"
)

const healthPingTimeout = 2 * time.Second

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db  pinger
	now func() time.Time
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db, now: time.Now}
}

// Health always answers 200 so the process stays routable; the database field
// reports whether Postgres is reachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := model.HealthStatus{
		Status:    "OK",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Database:  "connected",
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if h.db == nil {
		status.Database = "disconnected"
	} else if err := h.db.Health(ctx); err != nil {
		slog.Warn("health check database ping failed", "error", err)
		status.Database = "disconnected"
	}

	writeJSON(w, http.StatusOK, status)
}
