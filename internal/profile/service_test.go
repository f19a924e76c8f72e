package profile_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/calmdrive/calmdrive/internal/api/models"
	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/stress"
)

func createInput() *models.UserProfileCreateRequest {
	return &models.UserProfileCreateRequest{
		Name:              "Sam",
		DrivingExperience: "BEGINNER",
		DrivingFrequency:  "WEEKLY",
		StressTriggers: []models.StressTriggerItem{
			{Trigger: "HIGHWAYS", Severity: 4},
			{Trigger: "HONKING", Severity: 2},
		},
		CalmingPreferences: []models.CalmingPreferenceItem{
			{Preference: "CALMING_MUSIC", Effectiveness: 5},
		},
	}
}

func TestService_Create(t *testing.T) {
	service := profile.NewService(profile.NewInMemoryRepository())
	ctx := context.Background()

	result, err := service.Create(ctx, createInput())
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	if !strings.HasPrefix(result.ID, "usr_") {
		t.Errorf("expected user ID to start with 'usr_', got %q", result.ID)
	}
	if result.Name != "Sam" {
		t.Errorf("expected name Sam, got %q", result.Name)
	}
	if len(result.StressTriggers) != 2 {
		t.Errorf("expected 2 stress triggers, got %d", len(result.StressTriggers))
	}
	if len(result.CalmingPreferences) != 1 {
		t.Errorf("expected 1 calming preference, got %d", len(result.CalmingPreferences))
	}
}

func TestService_Create_ValidationErrors(t *testing.T) {
	service := profile.NewService(profile.NewInMemoryRepository())
	ctx := context.Background()

	tests := []struct {
		name      string
		mutate    func(*models.UserProfileCreateRequest)
		wantField string
	}{
		{
			name:      "empty name",
			mutate:    func(in *models.UserProfileCreateRequest) { in.Name = "" },
			wantField: "name",
		},
		{
			name:      "name too long",
			mutate:    func(in *models.UserProfileCreateRequest) { in.Name = strings.Repeat("a", 101) },
			wantField: "name",
		},
		{
			name:      "bad experience",
			mutate:    func(in *models.UserProfileCreateRequest) { in.DrivingExperience = "EXPERT" },
			wantField: "drivingExperience",
		},
		{
			name:      "bad frequency",
			mutate:    func(in *models.UserProfileCreateRequest) { in.DrivingFrequency = "SOMETIMES" },
			wantField: "drivingFrequency",
		},
		{
			name: "unknown trigger",
			mutate: func(in *models.UserProfileCreateRequest) {
				in.StressTriggers = []models.StressTriggerItem{{Trigger: "SPIDERS", Severity: 3}}
			},
			wantField: "stressTriggers",
		},
		{
			name: "severity out of range",
			mutate: func(in *models.UserProfileCreateRequest) {
				in.StressTriggers = []models.StressTriggerItem{{Trigger: "HIGHWAYS", Severity: 6}}
			},
			wantField: "stressTriggers",
		},
		{
			name: "unknown preference",
			mutate: func(in *models.UserProfileCreateRequest) {
				in.CalmingPreferences = []models.CalmingPreferenceItem{{Preference: "NAPPING", Effectiveness: 3}}
			},
			wantField: "calmingPreferences",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createInput()
			tt.mutate(input)

			_, err := service.Create(ctx, input)
			var validationErr *profile.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}

			found := false
			for _, fe := range validationErr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %+v", tt.wantField, validationErr.Errors)
			}
		})
	}
}

func TestService_Get_NotFound(t *testing.T) {
	service := profile.NewService(profile.NewInMemoryRepository())

	_, err := service.Get(context.Background(), "usr_missing")
	if !errors.Is(err, profile.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	service := profile.NewService(profile.NewInMemoryRepository())
	ctx := context.Background()

	created, err := service.Create(ctx, createInput())
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	newName := "Sam Updated"
	newTriggers := []models.StressTriggerItem{{Trigger: "NIGHT_DRIVING", Severity: 5}}
	updated, err := service.Update(ctx, created.ID, &models.UserProfileUpdateRequest{
		Name:           &newName,
		StressTriggers: &newTriggers,
	})
	if err != nil {
		t.Fatalf("failed to update profile: %v", err)
	}

	if updated.Name != newName {
		t.Errorf("expected name %q, got %q", newName, updated.Name)
	}
	if len(updated.StressTriggers) != 1 || updated.StressTriggers[0].Trigger != "NIGHT_DRIVING" {
		t.Errorf("expected triggers replaced, got %+v", updated.StressTriggers)
	}
	// preferences untouched
	if len(updated.CalmingPreferences) != 1 {
		t.Errorf("expected preferences preserved, got %+v", updated.CalmingPreferences)
	}
}

func TestService_TriggerSet(t *testing.T) {
	service := profile.NewService(profile.NewInMemoryRepository())
	ctx := context.Background()

	created, err := service.Create(ctx, createInput())
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	set, err := service.TriggerSet(ctx, created.ID)
	if err != nil {
		t.Fatalf("failed to get trigger set: %v", err)
	}
	if !set[stress.TypeHighways] || !set[stress.TypeHonking] {
		t.Errorf("expected HIGHWAYS and HONKING in trigger set, got %v", set)
	}

	// Unknown users score unpersonalized rather than failing
	set, err = service.TriggerSet(ctx, "usr_unknown")
	if err != nil {
		t.Fatalf("unexpected error for unknown user: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("expected empty trigger set, got %v", set)
	}
}

func TestService_Delete(t *testing.T) {
	service := profile.NewService(profile.NewInMemoryRepository())
	ctx := context.Background()

	created, err := service.Create(ctx, createInput())
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	if err := service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("failed to delete profile: %v", err)
	}

	if _, err := service.Get(ctx, created.ID); !errors.Is(err, profile.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
}
