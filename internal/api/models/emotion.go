package models

// Emotion reading contexts.
const (
	EmotionContextPreDrive    = "PRE_DRIVE"
	EmotionContextDuringDrive = "DURING_DRIVE"
	EmotionContextPostDrive   = "POST_DRIVE"
)

// EmotionReadingRequest submits an expression-measurement result for
// assessment. Emotions are keyed by capitalized emotion names ("Fear",
// "Anxiety") with 0-1 scores. DriveID associates during-drive readings
// with the active drive.
type EmotionReadingRequest struct {
	UserID   string             `json:"userId" validate:"required"`
	Context  string             `json:"context" validate:"required,oneof=PRE_DRIVE DURING_DRIVE POST_DRIVE"`
	Emotions map[string]float64 `json:"emotions" validate:"required"`
	DriveID  string             `json:"driveId,omitempty"`
}
