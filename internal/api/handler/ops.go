// Package handler provides HTTP handlers for the CalmDrive API.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/calmdrive/calmdrive/internal/api/models"
	"github.com/calmdrive/calmdrive/internal/api/response"
	"github.com/calmdrive/calmdrive/internal/routing"
)

// Pinger reports whether a dependency is reachable. *pgxpool.Pool
// satisfies this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version      string
	buildTime    string
	db           Pinger
	routeCache   CacheStatsProvider
	providerName string
}

// CacheStatsProvider exposes route cache statistics for the status
// endpoint. *routing.Service satisfies this.
type CacheStatsProvider interface {
	CacheStats() routing.CacheStats
	ProviderName() string
}

// NewOpsHandler creates a new OpsHandler. db and routes may be nil when
// the corresponding subsystem is not wired (tests, partial deployments).
func NewOpsHandler(version, buildTime string, db Pinger, routes CacheStatsProvider) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		db:        db,
		routeCache: routes,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Fails when
// the database cannot be reached.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	dbStatus := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			detail := err.Error()
			dbStatus.Status = models.HealthStatusFail
			dbStatus.Detail = &detail
			status.Status = models.HealthStatusDegraded
		}
	}
	status.Subsystems = append(status.Subsystems, dbStatus)

	if h.routeCache != nil {
		stats := h.routeCache.CacheStats()
		detail := fmt.Sprintf("%d entries (%d fresh, %d stale)",
			stats.TotalEntries, stats.FreshEntries, stats.StaleEntries)
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "route-cache",
			Status: models.HealthStatusOK,
			Detail: &detail,
		})
		status.Providers = append(status.Providers, models.ProviderStatus{
			Provider: h.routeCache.ProviderName(),
			Status:   models.HealthStatusOK,
		})
	}

	response.JSON(w, r, http.StatusOK, status)
}
