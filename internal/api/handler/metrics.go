package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calmdrive/calmdrive/internal/api/response"
	"github.com/calmdrive/calmdrive/internal/drive"
	"github.com/calmdrive/calmdrive/internal/profile"
)

// MetricsHandler serves aggregate usage metrics for the admin dashboard.
type MetricsHandler struct {
	drives *drive.Service
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(drives *drive.Service) *MetricsHandler {
	return &MetricsHandler{drives: drives}
}

// Dashboard handles GET /v1/metrics/dashboard - activity across all users.
func (h *MetricsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.drives.Dashboard(r.Context())
	if err != nil {
		response.InternalError(w, r, "internal server error")
		return
	}
	response.JSON(w, r, http.StatusOK, metrics)
}

// UserMetrics handles GET /v1/metrics/users/{userId}.
func (h *MetricsHandler) UserMetrics(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	metrics, err := h.drives.UserMetrics(r.Context(), userID)
	if err != nil {
		if errors.Is(err, profile.ErrUserNotFound) {
			response.NotFound(w, r, "user")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}
	response.JSON(w, r, http.StatusOK, metrics)
}

// EventSummary handles GET /v1/metrics/events/summary - event counts by type.
func (h *MetricsHandler) EventSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.drives.EventSummary(r.Context())
	if err != nil {
		response.InternalError(w, r, "internal server error")
		return
	}
	response.JSON(w, r, http.StatusOK, summary)
}
