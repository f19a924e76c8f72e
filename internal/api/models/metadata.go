package models

// Enums lists the vocabularies clients build pickers and filters from.
type Enums struct {
	StressTriggers     []string `json:"stressTriggers"`
	StressLevels       []string `json:"stressLevels"`
	InterventionTypes  []string `json:"interventionTypes"`
	DrivingExperiences []string `json:"drivingExperiences"`
	DrivingFrequencies []string `json:"drivingFrequencies"`
	CalmingPreferences []string `json:"calmingPreferences"`
	DriveEventTypes    []string `json:"driveEventTypes"`
	EmotionContexts    []string `json:"emotionContexts"`
}
