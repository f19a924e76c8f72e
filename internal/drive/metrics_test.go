package drive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calmdrive/calmdrive/internal/profile"
)

func seedDrive(t *testing.T, repo *InMemoryRepository, d Drive) {
	t.Helper()

	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now().UTC()
	}
	if err := repo.Create(context.Background(), &d); err != nil {
		t.Fatalf("seeding drive %s: %v", d.ID, err)
	}
}

func completedAt(startedAt time.Time) *time.Time {
	done := startedAt.Add(30 * time.Minute)
	return &done
}

func TestService_Dashboard(t *testing.T) {
	svc, repo := newTestService(t)
	now := time.Now().UTC()

	seedDrive(t, repo, Drive{
		ID: "drv_a", UserID: "usr_1", StartedAt: now.Add(-2 * time.Hour),
		CompletedAt:            completedAt(now.Add(-2 * time.Hour)),
		PreDriveStress:         floatPtr(0.8),
		PostDriveStress:        floatPtr(0.4),
		InterventionsTriggered: 2,
		ReroutesOffered:        2,
		ReroutesAccepted:       1,
	})
	seedDrive(t, repo, Drive{
		ID: "drv_b", UserID: "usr_2", StartedAt: now.Add(-1 * time.Hour),
		PreDriveStress: floatPtr(0.6),
	})
	seedDrive(t, repo, Drive{
		ID: "drv_c", UserID: "usr_2", StartedAt: now.Add(-30 * time.Minute),
		CompletedAt: completedAt(now.Add(-30 * time.Minute)),
	})

	m, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Drives.Total != 3 || m.Drives.Completed != 2 {
		t.Errorf("expected 3 drives / 2 completed, got %d / %d", m.Drives.Total, m.Drives.Completed)
	}
	if m.Drives.CompletionRate != 0.667 {
		t.Errorf("expected completion rate 0.667, got %v", m.Drives.CompletionRate)
	}
	if m.Stress.AvgPreDrive == nil || *m.Stress.AvgPreDrive != 0.7 {
		t.Errorf("expected avg pre-drive stress 0.7, got %v", m.Stress.AvgPreDrive)
	}
	if m.Stress.AvgPostDrive == nil || *m.Stress.AvgPostDrive != 0.4 {
		t.Errorf("expected avg post-drive stress 0.4, got %v", m.Stress.AvgPostDrive)
	}
	if m.Stress.AvgImprovement == nil || *m.Stress.AvgImprovement != 0.3 {
		t.Errorf("expected avg improvement 0.3, got %v", m.Stress.AvgImprovement)
	}
	if m.Interventions.TotalTriggered != 2 {
		t.Errorf("expected 2 interventions, got %d", m.Interventions.TotalTriggered)
	}
	if m.Reroutes.Offered != 2 || m.Reroutes.Accepted != 1 || m.Reroutes.AcceptanceRate != 0.5 {
		t.Errorf("unexpected reroute totals: %+v", m.Reroutes)
	}
}

func TestService_Dashboard_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	m, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Drives.Total != 0 || m.Drives.CompletionRate != 0 {
		t.Errorf("expected zeroed drive totals, got %+v", m.Drives)
	}
	if m.Stress.AvgPreDrive != nil || m.Stress.AvgPostDrive != nil || m.Stress.AvgImprovement != nil {
		t.Errorf("expected nil stress averages, got %+v", m.Stress)
	}
	if m.Reroutes.AcceptanceRate != 0 {
		t.Errorf("expected zero acceptance rate, got %v", m.Reroutes.AcceptanceRate)
	}
}

func TestService_UserMetrics(t *testing.T) {
	svc, repo := newTestService(t)
	now := time.Now().UTC()

	// Completed with both readings: improvement 0.5
	seedDrive(t, repo, Drive{
		ID: "drv_a", UserID: "usr_1", StartedAt: now.Add(-3 * time.Hour),
		CompletedAt:            completedAt(now.Add(-3 * time.Hour)),
		PreDriveStress:         floatPtr(0.9),
		PostDriveStress:        floatPtr(0.4),
		InterventionsTriggered: 1,
		ReroutesOffered:        1,
		ReroutesAccepted:       1,
	})
	// Completed without a post-drive reading: excluded from the average
	seedDrive(t, repo, Drive{
		ID: "drv_b", UserID: "usr_1", StartedAt: now.Add(-2 * time.Hour),
		CompletedAt:    completedAt(now.Add(-2 * time.Hour)),
		PreDriveStress: floatPtr(0.5),
	})
	// Another user's drive must not leak in
	seedDrive(t, repo, Drive{
		ID: "drv_c", UserID: "usr_2", StartedAt: now.Add(-1 * time.Hour),
		InterventionsTriggered: 5,
	})

	m, err := svc.UserMetrics(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.UserID != "usr_1" {
		t.Errorf("expected usr_1, got %q", m.UserID)
	}
	if m.TotalDrives != 2 || m.CompletedDrives != 2 {
		t.Errorf("expected 2 drives / 2 completed, got %d / %d", m.TotalDrives, m.CompletedDrives)
	}
	if m.AvgStressImprovement == nil || *m.AvgStressImprovement != 0.5 {
		t.Errorf("expected avg improvement 0.5, got %v", m.AvgStressImprovement)
	}
	if m.TotalInterventions != 1 {
		t.Errorf("expected 1 intervention, got %d", m.TotalInterventions)
	}
}

func TestService_UserMetrics_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UserMetrics(context.Background(), "usr_missing")
	if !errors.Is(err, profile.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_EventSummary(t *testing.T) {
	svc, _ := newTestService(t)
	d := startDrive(t, svc)

	record := func(eventType EventType) {
		t.Helper()
		if _, err := svc.RecordEvent(context.Background(), d.ID, EventInput{Type: eventType}); err != nil {
			t.Fatalf("recording %s: %v", eventType, err)
		}
	}
	record(EventStressDetected)
	record(EventStressDetected)
	record(EventIntervention)
	record(EventRerouteOffered)

	summary, err := svc.EventSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Total != 4 {
		t.Errorf("expected 4 events, got %d", summary.Total)
	}
	if summary.Events[EventStressDetected] != 2 {
		t.Errorf("expected 2 stress events, got %d", summary.Events[EventStressDetected])
	}
	if summary.Events[EventIntervention] != 1 || summary.Events[EventRerouteOffered] != 1 {
		t.Errorf("unexpected event counts: %v", summary.Events)
	}
}

func TestService_EventSummary_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.EventSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Total != 0 {
		t.Errorf("expected no events, got %d", summary.Total)
	}
	if summary.Events == nil {
		t.Error("expected empty map, got nil")
	}
}

func TestService_UserStats(t *testing.T) {
	svc, repo := newTestService(t)
	now := time.Now().UTC()

	// Today and yesterday form a two-day streak; the ten-day-old drive is
	// outside both the streak and the current week.
	seedDrive(t, repo, Drive{
		ID: "drv_a", UserID: "usr_1", StartedAt: now.Add(-1 * time.Hour),
		CompletedAt:      completedAt(now.Add(-1 * time.Hour)),
		PreDriveStress:   floatPtr(0.8),
		PostDriveStress:  floatPtr(0.3),
		ReroutesOffered:  2,
		ReroutesAccepted: 1,
	})
	seedDrive(t, repo, Drive{
		ID: "drv_b", UserID: "usr_1", StartedAt: now.AddDate(0, 0, -1),
		CompletedAt:    completedAt(now.AddDate(0, 0, -1)),
		PreDriveStress: floatPtr(0.6),
	})
	seedDrive(t, repo, Drive{
		ID: "drv_c", UserID: "usr_1", StartedAt: now.AddDate(0, 0, -10),
	})

	stats, err := svc.UserStats(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalDrives != 3 || stats.CompletedDrives != 2 {
		t.Errorf("expected 3 drives / 2 completed, got %d / %d", stats.TotalDrives, stats.CompletedDrives)
	}
	if stats.AveragePreStress == nil || *stats.AveragePreStress != 0.7 {
		t.Errorf("expected avg pre stress 0.7, got %v", stats.AveragePreStress)
	}
	if stats.AveragePostStress == nil || *stats.AveragePostStress != 0.3 {
		t.Errorf("expected avg post stress 0.3, got %v", stats.AveragePostStress)
	}
	if stats.StressImprovement == nil || *stats.StressImprovement != 0.4 {
		t.Errorf("expected improvement 0.4, got %v", stats.StressImprovement)
	}
	if stats.RerouteAcceptanceRate == nil || *stats.RerouteAcceptanceRate != 0.5 {
		t.Errorf("expected acceptance rate 0.5, got %v", stats.RerouteAcceptanceRate)
	}
	if stats.DrivesThisWeek != 2 {
		t.Errorf("expected 2 drives this week, got %d", stats.DrivesThisWeek)
	}
	if stats.CurrentStreak != 2 {
		t.Errorf("expected streak of 2, got %d", stats.CurrentStreak)
	}
}

func TestService_UserStats_NoDrives(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.UserStats(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalDrives != 0 || stats.CurrentStreak != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
	if stats.AveragePreStress != nil || stats.RerouteAcceptanceRate != nil {
		t.Errorf("expected nil averages, got %+v", stats)
	}
}

func TestService_UserStats_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UserStats(context.Background(), "usr_missing")
	if !errors.Is(err, profile.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCurrentStreak(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)
	day := func(daysAgo int) time.Time {
		return now.AddDate(0, 0, -daysAgo)
	}
	drivesOn := func(daysAgo ...int) []Drive {
		drives := make([]Drive, 0, len(daysAgo))
		for _, ago := range daysAgo {
			drives = append(drives, Drive{StartedAt: day(ago)})
		}
		return drives
	}

	tests := []struct {
		name   string
		drives []Drive
		want   int
	}{
		{"no drives", nil, 0},
		{"only today", drivesOn(0), 1},
		{"today and yesterday", drivesOn(0, 1), 2},
		{"streak starting yesterday", drivesOn(1, 2, 3), 3},
		{"gap breaks the streak", drivesOn(0, 1, 3, 4), 2},
		{"stale streak", drivesOn(2, 3, 4), 0},
		{"same day counted once", drivesOn(0, 0, 1), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := currentStreak(tt.drives, now); got != tt.want {
				t.Errorf("expected streak %d, got %d", tt.want, got)
			}
		})
	}
}
