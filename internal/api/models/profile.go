package models

// StressTriggerItem is a user stress trigger with its severity (1-5).
type StressTriggerItem struct {
	Trigger  string `json:"trigger" validate:"required"`
	Severity int    `json:"severity" validate:"gte=1,lte=5"`
}

// CalmingPreferenceItem is a calming technique with its effectiveness (1-5).
type CalmingPreferenceItem struct {
	Preference    string `json:"preference" validate:"required"`
	Effectiveness int    `json:"effectiveness" validate:"gte=1,lte=5"`
}

// UserProfile represents a driver profile.
type UserProfile struct {
	ID                 string                  `json:"id"`
	Name               string                  `json:"name"`
	DrivingExperience  string                  `json:"drivingExperience"`
	DrivingFrequency   string                  `json:"drivingFrequency"`
	ResolutionGoal     *string                 `json:"resolutionGoal,omitempty"`
	StressTriggers     []StressTriggerItem     `json:"stressTriggers"`
	CalmingPreferences []CalmingPreferenceItem `json:"calmingPreferences"`
	CreatedAt          Timestamp               `json:"createdAt"`
	UpdatedAt          Timestamp               `json:"updatedAt"`
}

// UserProfileCreateRequest is the request body for creating a profile.
type UserProfileCreateRequest struct {
	Name               string                  `json:"name" validate:"required,max=100"`
	DrivingExperience  string                  `json:"drivingExperience" validate:"required"`
	DrivingFrequency   string                  `json:"drivingFrequency" validate:"required"`
	ResolutionGoal     *string                 `json:"resolutionGoal,omitempty"`
	StressTriggers     []StressTriggerItem     `json:"stressTriggers,omitempty"`
	CalmingPreferences []CalmingPreferenceItem `json:"calmingPreferences,omitempty"`
}

// UserProfileUpdateRequest is the request body for updating a profile.
// Nil fields are left unchanged; trigger and preference lists replace the
// existing sets when present.
type UserProfileUpdateRequest struct {
	Name               *string                  `json:"name,omitempty"`
	DrivingExperience  *string                  `json:"drivingExperience,omitempty"`
	DrivingFrequency   *string                  `json:"drivingFrequency,omitempty"`
	ResolutionGoal     *string                  `json:"resolutionGoal,omitempty"`
	StressTriggers     *[]StressTriggerItem     `json:"stressTriggers,omitempty"`
	CalmingPreferences *[]CalmingPreferenceItem `json:"calmingPreferences,omitempty"`
}
