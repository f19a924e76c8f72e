package handler

import (
	"encoding/json"
	"net/http"

	"github.com/calmdrive/calmdrive/internal/api/models"
	"github.com/calmdrive/calmdrive/internal/api/response"
	"github.com/calmdrive/calmdrive/internal/drive"
	"github.com/calmdrive/calmdrive/internal/featureflags"
	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/reroute"
	"github.com/calmdrive/calmdrive/internal/routing"
)

// RerouteHandler handles mid-drive reroute checks.
type RerouteHandler struct {
	engine   *reroute.Engine
	profiles *profile.Service
	drives   *drive.Service
	flags    *featureflags.Service
}

// NewRerouteHandler creates a new RerouteHandler.
func NewRerouteHandler(engine *reroute.Engine, profiles *profile.Service, drives *drive.Service, flags *featureflags.Service) *RerouteHandler {
	return &RerouteHandler{engine: engine, profiles: profiles, drives: drives, flags: flags}
}

// CheckReroute handles POST /v1/reroute/check - look for a calmer
// alternative from the driver's current position. Unavailability is a
// normal 200 response, not an error.
func (h *RerouteHandler) CheckReroute(w http.ResponseWriter, r *http.Request) {
	var input models.RerouteCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrors := requireFields(requiredField{"userId", input.UserID}); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}
	if input.CurrentCalmScore != nil && (*input.CurrentCalmScore < 0 || *input.CurrentCalmScore > 100) {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "currentCalmScore", Message: "must be between 0 and 100"},
		})
		return
	}

	if h.flags != nil && h.flags.IsRerouteDisabled(r.Context()) {
		response.JSON(w, r, http.StatusOK, reroute.Decision{
			Available: false,
			Reason:    "Rerouting is temporarily unavailable.",
		})
		return
	}

	// Unknown users get an empty trigger set rather than an error.
	triggers, err := h.profiles.TriggerSet(r.Context(), input.UserID)
	if err != nil {
		response.InternalError(w, r, "internal server error")
		return
	}

	decision := h.engine.Check(r.Context(), reroute.CheckRequest{
		Current:          routing.Coordinate{Lat: input.CurrentLocation.Lat, Lon: input.CurrentLocation.Lon},
		Destination:      routing.Coordinate{Lat: input.Destination.Lat, Lon: input.Destination.Lon},
		CurrentCalmScore: input.CurrentCalmScore,
		Triggers:         triggers,
	})

	if decision.Available && input.DriveID != "" {
		details := map[string]any{
			"calm_score_improvement": decision.CalmScoreImprovement,
			"extra_time_minutes":     decision.ExtraTimeMinutes,
		}
		if decision.Route != nil {
			details["route_name"] = decision.Route.Name
		}
		if _, err := h.drives.RecordEvent(r.Context(), input.DriveID, drive.EventInput{
			Type:    drive.EventRerouteOffered,
			Details: details,
		}); err != nil {
			// The suggestion still stands; the drive log just misses it.
			response.JSON(w, r, http.StatusOK, decision)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, decision)
}
