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

// EmotionHandler handles emotion check-in endpoints.
type EmotionHandler struct {
	interventions *intervention.Service
	profiles      *profile.Service
	drives        *drive.Service
}

// NewEmotionHandler creates a new EmotionHandler.
func NewEmotionHandler(interventions *intervention.Service, profiles *profile.Service, drives *drive.Service) *EmotionHandler {
	return &EmotionHandler{interventions: interventions, profiles: profiles, drives: drives}
}

// emotionReadingResponse is an assessment, with intervention content
// attached for during-drive readings.
type emotionReadingResponse struct {
	emotion.Assessment
	Intervention *intervention.Response `json:"intervention,omitempty"`
}

// SubmitReading handles POST /v1/emotion/reading - assess an expression
// measurement. Pre- and post-drive readings return recommendations;
// during-drive readings also return an intervention decision and append a
// stress event to the active drive.
func (h *EmotionHandler) SubmitReading(w http.ResponseWriter, r *http.Request) {
	var input models.EmotionReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	fieldErrors := requireFields(
		requiredField{"userId", input.UserID},
		requiredField{"context", input.Context},
	)
	if len(input.Emotions) == 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "emotions", Message: "required"})
	}
	switch input.Context {
	case "", models.EmotionContextPreDrive, models.EmotionContextDuringDrive, models.EmotionContextPostDrive:
	default:
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   "context",
			Message: "must be PRE_DRIVE, DURING_DRIVE or POST_DRIVE",
		})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	assessCtx := emotion.ContextPreDrive
	if input.Context == models.EmotionContextPostDrive {
		assessCtx = emotion.ContextPostDrive
	}

	resp := emotionReadingResponse{Assessment: emotion.Assess(input.Emotions, assessCtx)}

	if input.Context == models.EmotionContextDuringDrive {
		prefs, err := h.profiles.Preferences(r.Context(), input.UserID)
		if err != nil {
			prefs = nil
		}
		decision := h.interventions.Decide(r.Context(), intervention.DecideRequest{
			StressScore: resp.StressScore,
			StressLevel: resp.StressLevel,
			Preferences: prefs,
			Context:     "driving",
		})
		resp.Intervention = &decision

		if input.DriveID != "" {
			stressLevel := resp.StressScore
			if _, err := h.drives.RecordEvent(r.Context(), input.DriveID, drive.EventInput{
				Type:        drive.EventStressDetected,
				StressLevel: &stressLevel,
				Details: map[string]any{
					"stress_level":      string(resp.StressLevel),
					"intervention_type": string(decision.Type),
				},
			}); err != nil {
				response.JSON(w, r, http.StatusOK, resp)
				return
			}
		}
	}

	response.JSON(w, r, http.StatusOK, resp)
}
