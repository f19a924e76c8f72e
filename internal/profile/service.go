package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/calmdrive/calmdrive/internal/api/models"
	"github.com/calmdrive/calmdrive/internal/stress"
)

// Validation constants.
const (
	MaxNameLength = 100
)

// Service provides profile operations.
type Service struct {
	repo Repository
}

// NewService creates a new profile service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get retrieves a profile by user ID.
func (s *Service) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := s.toAPIProfile(user)
	return &result, nil
}

// TriggerSet returns the user's stress trigger set for route scoring.
// Unknown users get an empty set rather than an error so scoring can
// proceed unpersonalized.
func (s *Service) TriggerSet(ctx context.Context, userID string) (stress.TriggerSet, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return stress.TriggerSet{}, nil
		}
		return nil, err
	}
	return user.TriggerSet(), nil
}

// Preferences returns the user's calming preferences, empty for unknown users.
func (s *Service) Preferences(ctx context.Context, userID string) ([]CalmingPreference, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user.Preferences, nil
}

// Create creates a new profile.
func (s *Service) Create(ctx context.Context, input *models.UserProfileCreateRequest) (*models.UserProfile, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	user := &User{
		ID:                "usr_" + uuid.New().String()[:22],
		Name:              input.Name,
		DrivingExperience: DrivingExperience(input.DrivingExperience),
		DrivingFrequency:  DrivingFrequency(input.DrivingFrequency),
		ResolutionGoal:    input.ResolutionGoal,
		Triggers:          toTriggers(input.StressTriggers),
		Preferences:       toPreferences(input.CalmingPreferences),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	result := s.toAPIProfile(user)
	return &result, nil
}

// Update updates an existing profile.
func (s *Service) Update(ctx context.Context, userID string, input *models.UserProfileUpdateRequest) (*models.UserProfile, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if fieldErrors := s.validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.DrivingExperience != nil {
		user.DrivingExperience = DrivingExperience(*input.DrivingExperience)
	}
	if input.DrivingFrequency != nil {
		user.DrivingFrequency = DrivingFrequency(*input.DrivingFrequency)
	}
	if input.ResolutionGoal != nil {
		user.ResolutionGoal = input.ResolutionGoal
	}
	if input.StressTriggers != nil {
		user.Triggers = toTriggers(*input.StressTriggers)
	}
	if input.CalmingPreferences != nil {
		user.Preferences = toPreferences(*input.CalmingPreferences)
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	result := s.toAPIProfile(user)
	return &result, nil
}

// Delete deletes a profile.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID)
}

func (s *Service) validateCreateInput(input *models.UserProfileCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 100 characters"})
	}

	if !validExperience(input.DrivingExperience) {
		errs = append(errs, models.FieldError{Field: "drivingExperience", Message: "must be one of BEGINNER, INTERMEDIATE, EXPERIENCED"})
	}
	if !validFrequency(input.DrivingFrequency) {
		errs = append(errs, models.FieldError{Field: "drivingFrequency", Message: "must be one of DAILY, WEEKLY, OCCASIONAL, RARELY"})
	}

	errs = append(errs, validateTriggers(input.StressTriggers)...)
	errs = append(errs, validatePreferences(input.CalmingPreferences)...)

	return errs
}

func (s *Service) validateUpdateInput(input *models.UserProfileUpdateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name != nil {
		if *input.Name == "" {
			errs = append(errs, models.FieldError{Field: "name", Message: "cannot be empty"})
		} else if len(*input.Name) > MaxNameLength {
			errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 100 characters"})
		}
	}
	if input.DrivingExperience != nil && !validExperience(*input.DrivingExperience) {
		errs = append(errs, models.FieldError{Field: "drivingExperience", Message: "must be one of BEGINNER, INTERMEDIATE, EXPERIENCED"})
	}
	if input.DrivingFrequency != nil && !validFrequency(*input.DrivingFrequency) {
		errs = append(errs, models.FieldError{Field: "drivingFrequency", Message: "must be one of DAILY, WEEKLY, OCCASIONAL, RARELY"})
	}
	if input.StressTriggers != nil {
		errs = append(errs, validateTriggers(*input.StressTriggers)...)
	}
	if input.CalmingPreferences != nil {
		errs = append(errs, validatePreferences(*input.CalmingPreferences)...)
	}

	return errs
}

func validExperience(v string) bool {
	switch DrivingExperience(v) {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceExperienced:
		return true
	}
	return false
}

func validFrequency(v string) bool {
	switch DrivingFrequency(v) {
	case FrequencyDaily, FrequencyWeekly, FrequencyOccasional, FrequencyRarely:
		return true
	}
	return false
}

func validTriggerType(v string) bool {
	for _, t := range stress.PointTypes() {
		if stress.PointType(v) == t {
			return true
		}
	}
	return false
}

func validPreferenceType(v string) bool {
	for _, p := range PreferenceTypes() {
		if PreferenceType(v) == p {
			return true
		}
	}
	return false
}

func validateTriggers(items []models.StressTriggerItem) []models.FieldError {
	var errs []models.FieldError
	for _, item := range items {
		if !validTriggerType(item.Trigger) {
			errs = append(errs, models.FieldError{Field: "stressTriggers", Message: "unknown trigger type " + item.Trigger})
		}
		if item.Severity < 1 || item.Severity > 5 {
			errs = append(errs, models.FieldError{Field: "stressTriggers", Message: "severity must be between 1 and 5"})
		}
	}
	return errs
}

func validatePreferences(items []models.CalmingPreferenceItem) []models.FieldError {
	var errs []models.FieldError
	for _, item := range items {
		if !validPreferenceType(item.Preference) {
			errs = append(errs, models.FieldError{Field: "calmingPreferences", Message: "unknown preference " + item.Preference})
		}
		if item.Effectiveness < 1 || item.Effectiveness > 5 {
			errs = append(errs, models.FieldError{Field: "calmingPreferences", Message: "effectiveness must be between 1 and 5"})
		}
	}
	return errs
}

func toTriggers(items []models.StressTriggerItem) []StressTrigger {
	triggers := make([]StressTrigger, 0, len(items))
	for _, item := range items {
		triggers = append(triggers, StressTrigger{
			Type:     stress.PointType(item.Trigger),
			Severity: item.Severity,
		})
	}
	return triggers
}

func toPreferences(items []models.CalmingPreferenceItem) []CalmingPreference {
	prefs := make([]CalmingPreference, 0, len(items))
	for _, item := range items {
		prefs = append(prefs, CalmingPreference{
			Type:          PreferenceType(item.Preference),
			Effectiveness: item.Effectiveness,
		})
	}
	return prefs
}

func (s *Service) toAPIProfile(u *User) models.UserProfile {
	triggers := make([]models.StressTriggerItem, 0, len(u.Triggers))
	for _, t := range u.Triggers {
		triggers = append(triggers, models.StressTriggerItem{
			Trigger:  string(t.Type),
			Severity: t.Severity,
		})
	}

	prefs := make([]models.CalmingPreferenceItem, 0, len(u.Preferences))
	for _, p := range u.Preferences {
		prefs = append(prefs, models.CalmingPreferenceItem{
			Preference:    string(p.Type),
			Effectiveness: p.Effectiveness,
		})
	}

	return models.UserProfile{
		ID:                 u.ID,
		Name:               u.Name,
		DrivingExperience:  string(u.DrivingExperience),
		DrivingFrequency:   string(u.DrivingFrequency),
		ResolutionGoal:     u.ResolutionGoal,
		StressTriggers:     triggers,
		CalmingPreferences: prefs,
		CreatedAt:          models.Timestamp(u.CreatedAt),
		UpdatedAt:          models.Timestamp(u.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
