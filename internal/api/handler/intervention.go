package handler

import (
	"encoding/json"
	"net/http"

	"github.com/calmdrive/calmdrive/internal/api/models"
	"github.com/calmdrive/calmdrive/internal/api/response"
	"github.com/calmdrive/calmdrive/internal/drive"
	"github.com/calmdrive/calmdrive/internal/emotion"
	"github.com/calmdrive/calmdrive/internal/intervention"
	"github.com/calmdrive/calmdrive/internal/profile"
)

// InterventionHandler handles in-drive calming intervention endpoints.
type InterventionHandler struct {
	interventions *intervention.Service
	profiles      *profile.Service
	drives        *drive.Service
}

// NewInterventionHandler creates a new InterventionHandler.
func NewInterventionHandler(interventions *intervention.Service, profiles *profile.Service, drives *drive.Service) *InterventionHandler {
	return &InterventionHandler{interventions: interventions, profiles: profiles, drives: drives}
}

// Decide handles POST /v1/intervention/decide - classify a stress reading
// and assemble the matching intervention content.
func (h *InterventionHandler) Decide(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	decision := h.interventions.Decide(r.Context(), h.decideRequest(r, input))

	if decision.Type != intervention.TypeNone && input.DriveID != "" {
		stressLevel := input.StressScore
		if _, err := h.drives.RecordEvent(r.Context(), input.DriveID, drive.EventInput{
			Type:        drive.EventIntervention,
			StressLevel: &stressLevel,
			Details: map[string]any{
				"intervention_type": string(decision.Type),
			},
		}); err != nil {
			// The intervention still fires; the drive log just misses it.
			response.JSON(w, r, http.StatusOK, decision)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, decision)
}

// CalmingMessage handles POST /v1/intervention/calming-message - get a
// personalized calming message regardless of stress level.
func (h *InterventionHandler) CalmingMessage(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	message, sources := h.interventions.CalmingMessage(r.Context(), h.decideRequest(r, input))

	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": message,
		"sources": sources,
	})
}

// BreathingExercise handles POST /v1/intervention/breathing-exercise.
func (h *InterventionHandler) BreathingExercise(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.interventions.BreathingExercise())
}

// GroundingExercise handles POST /v1/intervention/grounding-exercise.
func (h *InterventionHandler) GroundingExercise(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.interventions.GroundingExercise())
}

func (h *InterventionHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (models.InterventionDecideRequest, bool) {
	var input models.InterventionDecideRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return input, false
	}

	fieldErrors := requireFields(requiredField{"userId", input.UserID})
	if input.StressScore < 0 || input.StressScore > 1 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "stressScore", Message: "must be between 0 and 1"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return input, false
	}
	return input, true
}

func (h *InterventionHandler) decideRequest(r *http.Request, input models.InterventionDecideRequest) intervention.DecideRequest {
	// Unknown users are served without personalization.
	prefs, err := h.profiles.Preferences(r.Context(), input.UserID)
	if err != nil {
		prefs = nil
	}

	return intervention.DecideRequest{
		StressScore: input.StressScore,
		StressLevel: emotion.Level(input.StressLevel),
		Preferences: prefs,
		Context:     input.Context,
	}
}
