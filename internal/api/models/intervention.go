package models

// InterventionDecideRequest asks which intervention a stress reading
// warrants. StressLevel is derived from StressScore when omitted.
type InterventionDecideRequest struct {
	UserID      string  `json:"userId" validate:"required"`
	StressScore float64 `json:"stressScore" validate:"gte=0,lte=1"`
	StressLevel string  `json:"stressLevel,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Context     string  `json:"context,omitempty"`
	DriveID     string  `json:"driveId,omitempty"`
}
