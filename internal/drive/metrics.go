package drive

import (
	"context"
	"math"
	"sort"
	"time"
)

// DashboardMetrics aggregates drive activity across all users.
type DashboardMetrics struct {
	Drives        DriveTotals        `json:"drives"`
	Stress        StressAverages     `json:"stress"`
	Interventions InterventionTotals `json:"interventions"`
	Reroutes      RerouteTotals      `json:"reroutes"`
}

// DriveTotals counts drives by lifecycle status.
type DriveTotals struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completionRate"`
}

// StressAverages holds mean self-reported stress before and after drives.
// Averages are nil until at least one drive carries the reading.
type StressAverages struct {
	AvgPreDrive    *float64 `json:"avgPreDrive"`
	AvgPostDrive   *float64 `json:"avgPostDrive"`
	AvgImprovement *float64 `json:"avgImprovement"`
}

// InterventionTotals counts in-drive interventions.
type InterventionTotals struct {
	TotalTriggered int `json:"totalTriggered"`
}

// RerouteTotals tracks how often calmer-route suggestions land.
type RerouteTotals struct {
	Offered        int     `json:"offered"`
	Accepted       int     `json:"accepted"`
	AcceptanceRate float64 `json:"acceptanceRate"`
}

// UserMetrics aggregates one user's drive history for the admin view.
type UserMetrics struct {
	UserID               string   `json:"userId"`
	TotalDrives          int      `json:"totalDrives"`
	CompletedDrives      int      `json:"completedDrives"`
	AvgStressImprovement *float64 `json:"avgStressImprovement"`
	TotalInterventions   int      `json:"totalInterventions"`
	ReroutesOffered      int      `json:"reroutesOffered"`
	ReroutesAccepted     int      `json:"reroutesAccepted"`
}

// EventSummary counts recorded drive events by type.
type EventSummary struct {
	Events map[EventType]int `json:"events"`
	Total  int               `json:"total"`
}

// UserStats summarizes a user's progress for their own stats screen.
type UserStats struct {
	TotalDrives           int      `json:"totalDrives"`
	CompletedDrives       int      `json:"completedDrives"`
	AveragePreStress      *float64 `json:"averagePreStress"`
	AveragePostStress     *float64 `json:"averagePostStress"`
	StressImprovement     *float64 `json:"stressImprovement"`
	RerouteAcceptanceRate *float64 `json:"rerouteAcceptanceRate"`
	DrivesThisWeek        int      `json:"drivesThisWeek"`
	CurrentStreak         int      `json:"currentStreak"`
}

// Dashboard aggregates activity across all users.
func (s *Service) Dashboard(ctx context.Context) (*DashboardMetrics, error) {
	drives, err := s.repo.AllDrives(ctx)
	if err != nil {
		return nil, err
	}

	m := &DashboardMetrics{
		Drives: DriveTotals{Total: len(drives)},
	}

	var preSum, postSum float64
	var preCount, postCount int
	for i := range drives {
		d := &drives[i]
		if d.CompletedAt != nil {
			m.Drives.Completed++
		}
		if d.PreDriveStress != nil {
			preSum += *d.PreDriveStress
			preCount++
		}
		if d.PostDriveStress != nil {
			postSum += *d.PostDriveStress
			postCount++
		}
		m.Interventions.TotalTriggered += d.InterventionsTriggered
		m.Reroutes.Offered += d.ReroutesOffered
		m.Reroutes.Accepted += d.ReroutesAccepted
	}

	if m.Drives.Total > 0 {
		m.Drives.CompletionRate = round3(float64(m.Drives.Completed) / float64(m.Drives.Total))
	}
	if m.Reroutes.Offered > 0 {
		m.Reroutes.AcceptanceRate = round3(float64(m.Reroutes.Accepted) / float64(m.Reroutes.Offered))
	}

	m.Stress.AvgPreDrive = meanPtr(preSum, preCount, round3)
	m.Stress.AvgPostDrive = meanPtr(postSum, postCount, round3)
	if m.Stress.AvgPreDrive != nil && m.Stress.AvgPostDrive != nil {
		improvement := round3(*m.Stress.AvgPreDrive - *m.Stress.AvgPostDrive)
		m.Stress.AvgImprovement = &improvement
	}

	return m, nil
}

// UserMetrics aggregates one user's drive history.
// Returns profile.ErrUserNotFound for unknown users.
func (s *Service) UserMetrics(ctx context.Context, userID string) (*UserMetrics, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	drives, err := s.repo.AllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	m := &UserMetrics{
		UserID:      userID,
		TotalDrives: len(drives),
	}

	var improvementSum float64
	var improvementCount int
	for i := range drives {
		d := &drives[i]
		if d.CompletedAt != nil {
			m.CompletedDrives++
			if d.PreDriveStress != nil && d.PostDriveStress != nil {
				improvementSum += *d.PreDriveStress - *d.PostDriveStress
				improvementCount++
			}
		}
		m.TotalInterventions += d.InterventionsTriggered
		m.ReroutesOffered += d.ReroutesOffered
		m.ReroutesAccepted += d.ReroutesAccepted
	}
	m.AvgStressImprovement = meanPtr(improvementSum, improvementCount, round3)

	return m, nil
}

// EventSummary counts recorded events by type across all drives.
func (s *Service) EventSummary(ctx context.Context) (*EventSummary, error) {
	counts, err := s.repo.CountEventsByType(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = map[EventType]int{}
	}

	summary := &EventSummary{Events: counts}
	for _, n := range counts {
		summary.Total += n
	}
	return summary, nil
}

// UserStats summarizes a user's progress: averages, weekly activity and the
// current daily driving streak.
// Returns profile.ErrUserNotFound for unknown users.
func (s *Service) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	drives, err := s.repo.AllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stats := &UserStats{TotalDrives: len(drives)}

	var preSum, postSum float64
	var preCount, postCount int
	var offered, accepted int
	weekAgo := now.AddDate(0, 0, -7)
	for i := range drives {
		d := &drives[i]
		if d.CompletedAt != nil {
			stats.CompletedDrives++
		}
		if d.PreDriveStress != nil {
			preSum += *d.PreDriveStress
			preCount++
		}
		if d.PostDriveStress != nil {
			postSum += *d.PostDriveStress
			postCount++
		}
		offered += d.ReroutesOffered
		accepted += d.ReroutesAccepted
		if !d.StartedAt.Before(weekAgo) {
			stats.DrivesThisWeek++
		}
	}

	stats.AveragePreStress = meanPtr(preSum, preCount, round2)
	stats.AveragePostStress = meanPtr(postSum, postCount, round2)
	if stats.AveragePreStress != nil && stats.AveragePostStress != nil {
		improvement := round2(*stats.AveragePreStress - *stats.AveragePostStress)
		stats.StressImprovement = &improvement
	}
	if offered > 0 {
		rate := round2(float64(accepted) / float64(offered))
		stats.RerouteAcceptanceRate = &rate
	}
	stats.CurrentStreak = currentStreak(drives, now)

	return stats, nil
}

// currentStreak counts consecutive calendar days with at least one drive.
// The streak must reach today or yesterday, otherwise it is broken.
func currentStreak(drives []Drive, now time.Time) int {
	seen := make(map[time.Time]bool, len(drives))
	for _, d := range drives {
		y, m, day := d.StartedAt.UTC().Date()
		seen[time.Date(y, m, day, 0, 0, 0, 0, time.UTC)] = true
	}
	if len(seen) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !days[0].Equal(today) && !days[0].Equal(today.AddDate(0, 0, -1)) {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if !days[i].Equal(days[i-1].AddDate(0, 0, -1)) {
			break
		}
		streak++
	}
	return streak
}

func meanPtr(sum float64, count int, round func(float64) float64) *float64 {
	if count == 0 {
		return nil
	}
	avg := round(sum / float64(count))
	return &avg
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
