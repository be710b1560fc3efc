package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/diewo77/bookbuddy/httpx"
	"github.com/diewo77/bookbuddy/internal/db"
	"github.com/diewo77/bookbuddy/internal/logging"
)

type HealthHandler struct {
	db  *sql.DB
	now func() time.Time
}

func NewHealthHandler(sqlDB *sql.DB) *HealthHandler {
	return &HealthHandler{db: sqlDB, now: time.Now}
}

// Live always answers OK while the process serves requests.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "OK", "timestamp": h.now().UTC()})
}

// Ready reports whether the database answers a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context(), h.db); err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("database ping failed")
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "database": "down"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "OK", "database": "up"})
}
