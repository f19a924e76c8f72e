package handler

import (
	"net/http"

	"github.com/calmdrive/calmdrive/internal/api/models"
	"github.com/calmdrive/calmdrive/internal/api/response"
	"github.com/calmdrive/calmdrive/internal/drive"
	"github.com/calmdrive/calmdrive/internal/emotion"
	"github.com/calmdrive/calmdrive/internal/intervention"
	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/stress"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// GetEnums handles GET /v1/metadata/enums - the vocabularies clients build
// pickers and filters from.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		StressTriggers: enumStrings(stress.PointTypes()),
		StressLevels: []string{
			string(emotion.LevelLow),
			string(emotion.LevelMedium),
			string(emotion.LevelHigh),
			string(emotion.LevelCritical),
		},
		InterventionTypes: []string{
			string(intervention.TypeNone),
			string(intervention.TypeCalmingMessage),
			string(intervention.TypeBreathingExercise),
			string(intervention.TypePullOver),
		},
		DrivingExperiences: []string{
			string(profile.ExperienceBeginner),
			string(profile.ExperienceIntermediate),
			string(profile.ExperienceExperienced),
		},
		DrivingFrequencies: []string{
			string(profile.FrequencyDaily),
			string(profile.FrequencyWeekly),
			string(profile.FrequencyOccasional),
			string(profile.FrequencyRarely),
		},
		CalmingPreferences: enumStrings(profile.PreferenceTypes()),
		DriveEventTypes:    enumStrings(drive.EventTypes()),
		EmotionContexts: []string{
			models.EmotionContextPreDrive,
			models.EmotionContextDuringDrive,
			models.EmotionContextPostDrive,
		},
	}
	response.JSON(w, r, http.StatusOK, enums)
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
