package drive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/stress"
)

func newTestService(t *testing.T) (*Service, *InMemoryRepository) {
	t.Helper()

	users := profile.NewInMemoryRepository()
	err := users.Create(context.Background(), &profile.User{
		ID:                "usr_1",
		Name:              "Sam",
		DrivingExperience: profile.ExperienceBeginner,
		DrivingFrequency:  profile.FrequencyWeekly,
		Triggers: []profile.StressTrigger{
			{Type: stress.TypeHighways, Severity: 3},
		},
	})
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	repo := NewInMemoryRepository()
	svc := NewService(ServiceConfig{
		Repository: repo,
		Users:      users,
	})
	return svc, repo
}

func startDrive(t *testing.T, svc *Service) *Drive {
	t.Helper()

	pre := 0.7
	d, err := svc.Start(context.Background(), StartRequest{
		UserID:            "usr_1",
		Origin:            "Home",
		Destination:       "Office",
		SelectedRouteType: "CALM",
		PreDriveStress:    &pre,
	})
	if err != nil {
		t.Fatalf("starting drive: %v", err)
	}
	return d
}

func TestService_Start(t *testing.T) {
	svc, _ := newTestService(t)

	d := startDrive(t, svc)

	if d.ID == "" || d.ID[:4] != "drv_" {
		t.Errorf("expected drv_ prefixed id, got %q", d.ID)
	}
	if d.Status() != StatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", d.Status())
	}
	if d.PreDriveStress == nil || *d.PreDriveStress != 0.7 {
		t.Error("expected pre-drive stress to be recorded")
	}
}

func TestService_Start_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Start(context.Background(), StartRequest{UserID: "usr_missing"})
	if !errors.Is(err, profile.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_Start_ActiveDriveConflict(t *testing.T) {
	svc, _ := newTestService(t)

	startDrive(t, svc)

	_, err := svc.Start(context.Background(), StartRequest{UserID: "usr_1", Origin: "A", Destination: "B"})
	if !errors.Is(err, ErrActiveDriveExists) {
		t.Errorf("expected ErrActiveDriveExists, got %v", err)
	}
}

func TestService_RecordEvent_UpdatesCounters(t *testing.T) {
	svc, _ := newTestService(t)
	d := startDrive(t, svc)

	level := 0.65
	_, err := svc.RecordEvent(context.Background(), d.ID, EventInput{
		Type:        EventStressDetected,
		StressLevel: &level,
		Details:     map[string]any{"trigger_type": "HIGHWAYS"},
	})
	if err != nil {
		t.Fatalf("recording stress event: %v", err)
	}

	if _, err := svc.RecordEvent(context.Background(), d.ID, EventInput{Type: EventIntervention}); err != nil {
		t.Fatalf("recording intervention: %v", err)
	}
	if _, err := svc.RecordEvent(context.Background(), d.ID, EventInput{Type: EventRerouteOffered}); err != nil {
		t.Fatalf("recording reroute offer: %v", err)
	}

	got, err := svc.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("fetching drive: %v", err)
	}
	if got.InterventionsTriggered != 1 {
		t.Errorf("expected 1 intervention, got %d", got.InterventionsTriggered)
	}
	if got.ReroutesOffered != 1 {
		t.Errorf("expected 1 reroute offered, got %d", got.ReroutesOffered)
	}
	if len(got.Events) != 3 {
		t.Errorf("expected 3 events, got %d", len(got.Events))
	}
}

func TestService_AcceptReroute(t *testing.T) {
	svc, _ := newTestService(t)
	d := startDrive(t, svc)

	count, err := svc.AcceptReroute(context.Background(), d.ID, AcceptRerouteInput{
		RouteName:            "Kerkstraat route",
		CalmScoreImprovement: 25,
	})
	if err != nil {
		t.Fatalf("accepting reroute: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 accepted reroute, got %d", count)
	}

	got, _ := svc.Get(context.Background(), d.ID)
	if len(got.Events) != 1 || got.Events[0].Type != EventRerouteAccepted {
		t.Fatalf("expected a REROUTE_ACCEPTED event, got %+v", got.Events)
	}
	if got.Events[0].Details["route_name"] != "Kerkstraat route" {
		t.Errorf("expected route name in details, got %v", got.Events[0].Details)
	}
}

func TestService_End(t *testing.T) {
	svc, _ := newTestService(t)
	d := startDrive(t, svc)

	low, high := 0.3, 0.7
	_, _ = svc.RecordEvent(context.Background(), d.ID, EventInput{Type: EventStressDetected, StressLevel: &high})
	_, _ = svc.RecordEvent(context.Background(), d.ID, EventInput{Type: EventStressDetected, StressLevel: &low})

	result, err := svc.End(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("ending drive: %v", err)
	}

	if result.Drive.Status() != StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", result.Drive.Status())
	}
	if result.Summary.EventsCount != 2 {
		t.Errorf("expected 2 events, got %d", result.Summary.EventsCount)
	}
	if result.Summary.AvgStressLevel == nil || *result.Summary.AvgStressLevel != 0.5 {
		t.Errorf("expected avg stress 0.5, got %v", result.Summary.AvgStressLevel)
	}

	// Ending twice fails
	if _, err := svc.End(context.Background(), d.ID); !errors.Is(err, ErrDriveCompleted) {
		t.Errorf("expected ErrDriveCompleted, got %v", err)
	}

	// A completed drive rejects new events
	if _, err := svc.RecordEvent(context.Background(), d.ID, EventInput{Type: EventIntervention}); !errors.Is(err, ErrDriveCompleted) {
		t.Errorf("expected ErrDriveCompleted, got %v", err)
	}
}

func TestService_End_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.End(context.Background(), "drv_missing")
	if !errors.Is(err, ErrDriveNotFound) {
		t.Errorf("expected ErrDriveNotFound, got %v", err)
	}
}

func TestService_Active(t *testing.T) {
	svc, _ := newTestService(t)

	// No active drive yet
	active, err := svc.Active(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("fetching active drive: %v", err)
	}
	if active != nil {
		t.Fatal("expected no active drive")
	}

	d := startDrive(t, svc)
	first, second := 0.4, 0.8
	_, _ = svc.RecordEvent(context.Background(), d.ID, EventInput{Type: EventStressDetected, StressLevel: &first})
	_, _ = svc.RecordEvent(context.Background(), d.ID, EventInput{Type: EventStressDetected, StressLevel: &second})

	active, err = svc.Active(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("fetching active drive: %v", err)
	}
	if active == nil {
		t.Fatal("expected an active drive")
	}
	if active.Drive.ID != d.ID {
		t.Errorf("expected drive %s, got %s", d.ID, active.Drive.ID)
	}
	if active.EventsCount != 2 {
		t.Errorf("expected 2 events, got %d", active.EventsCount)
	}
	if active.LatestStressLevel == nil || *active.LatestStressLevel != 0.8 {
		t.Errorf("expected latest stress 0.8, got %v", active.LatestStressLevel)
	}
}

func TestService_List(t *testing.T) {
	svc, repo := newTestService(t)

	// Seed three drives directly, two completed
	now := time.Now().UTC()
	for i, completed := range []bool{true, true, false} {
		d := &Drive{
			ID:        "drv_" + string(rune('a'+i)),
			UserID:    "usr_1",
			StartedAt: now.Add(time.Duration(i) * time.Hour),
			Origin:    "Home",
		}
		if completed {
			done := d.StartedAt.Add(30 * time.Minute)
			d.CompletedAt = &done
		}
		if err := repo.Create(context.Background(), d); err != nil {
			t.Fatalf("seeding drive: %v", err)
		}
	}

	drives, total, err := svc.List(context.Background(), "usr_1", ListFilter{})
	if err != nil {
		t.Fatalf("listing drives: %v", err)
	}
	if total != 3 || len(drives) != 3 {
		t.Fatalf("expected 3 drives, got %d (total %d)", len(drives), total)
	}
	// Newest first
	if !drives[0].StartedAt.After(drives[1].StartedAt) {
		t.Error("expected drives ordered newest first")
	}

	completed, total, err := svc.List(context.Background(), "usr_1", ListFilter{Status: StatusCompleted})
	if err != nil {
		t.Fatalf("listing completed drives: %v", err)
	}
	if total != 2 || len(completed) != 2 {
		t.Errorf("expected 2 completed drives, got %d (total %d)", len(completed), total)
	}

	paged, total, err := svc.List(context.Background(), "usr_1", ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("listing paged drives: %v", err)
	}
	if total != 3 || len(paged) != 1 {
		t.Errorf("expected page of 1 with total 3, got %d (total %d)", len(paged), total)
	}
}
