package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

const healthCheckTimeout = 2 * time.Second

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	CheckedAt  time.Time    `json:"checked_at"`
	DurationMs int64        `json:"duration_ms"`
}

// Pinger is satisfied by the permission caches.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    *sql.DB
	cache Pinger
}

// NewHealthHandler checks the relational store and, when given, the
// permission cache. The cache only degrades health: resolution falls back to
// the store while it is down.
func NewHealthHandler(db *sql.DB, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     HealthHealthy,
		Components: make(map[string]CheckEntry, 2),
	}

	db := check(ctx, h.db.PingContext, HealthUnhealthy)
	resp.Components["postgres"] = db
	if db.Status != HealthHealthy {
		resp.Status = HealthUnhealthy
	}

	if h.cache != nil {
		cache := check(ctx, h.cache.Ping, HealthDegraded)
		resp.Components["cache"] = cache
		if cache.Status != HealthHealthy && resp.Status == HealthHealthy {
			resp.Status = HealthDegraded
		}
	}
	resp.CheckedAt = time.Now().UTC()

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeHealthJSON(w, statusCode, resp)
}

func check(ctx context.Context, ping func(context.Context) error, onFailure HealthStatus) CheckEntry {
	start := time.Now()
	err := ping(ctx)

	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now().UTC(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = onFailure
		entry.Message = "ping failed"
	}
	return entry
}

func writeHealthJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
