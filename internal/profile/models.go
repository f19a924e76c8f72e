// Package profile manages driver profiles, stress triggers, and calming
// preferences.
package profile

import (
	"errors"
	"time"

	"github.com/calmdrive/calmdrive/internal/stress"
)

// Repository errors.
var (
	ErrUserNotFound = errors.New("user not found")
)

// DrivingExperience describes how long the driver has been driving.
type DrivingExperience string

const (
	ExperienceBeginner     DrivingExperience = "BEGINNER"
	ExperienceIntermediate DrivingExperience = "INTERMEDIATE"
	ExperienceExperienced  DrivingExperience = "EXPERIENCED"
)

// DrivingFrequency describes how often the driver drives.
type DrivingFrequency string

const (
	FrequencyDaily      DrivingFrequency = "DAILY"
	FrequencyWeekly     DrivingFrequency = "WEEKLY"
	FrequencyOccasional DrivingFrequency = "OCCASIONAL"
	FrequencyRarely     DrivingFrequency = "RARELY"
)

// PreferenceType identifies a calming technique the driver responds to.
type PreferenceType string

const (
	PreferenceCalmingMusic  PreferenceType = "CALMING_MUSIC"
	PreferenceDeepBreathing PreferenceType = "DEEP_BREATHING"
	PreferencePullingOver   PreferenceType = "PULLING_OVER"
	PreferenceTalking       PreferenceType = "TALKING"
	PreferenceSilence       PreferenceType = "SILENCE"
)

// PreferenceTypes lists the calming preference vocabulary.
func PreferenceTypes() []PreferenceType {
	return []PreferenceType{
		PreferenceCalmingMusic,
		PreferenceDeepBreathing,
		PreferencePullingOver,
		PreferenceTalking,
		PreferenceSilence,
	}
}

// User is a driver profile.
type User struct {
	ID                string
	Name              string
	DrivingExperience DrivingExperience
	DrivingFrequency  DrivingFrequency
	ResolutionGoal    *string
	Triggers          []StressTrigger
	Preferences       []CalmingPreference
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StressTrigger is a route feature the driver finds especially stressful.
// Severity is 1-5; scoring only uses membership, the severity is kept for
// drive debriefs.
type StressTrigger struct {
	Type     stress.PointType
	Severity int
}

// CalmingPreference is a technique with its reported effectiveness (1-5).
type CalmingPreference struct {
	Type          PreferenceType
	Effectiveness int
}

// TriggerSet converts the user's triggers to the scoring set.
func (u *User) TriggerSet() stress.TriggerSet {
	set := make(stress.TriggerSet, len(u.Triggers))
	for _, t := range u.Triggers {
		set[t.Type] = true
	}
	return set
}
