package trip_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmdrive/calmdrive/internal/profile"
	"github.com/calmdrive/calmdrive/internal/routing"
	"github.com/calmdrive/calmdrive/internal/stress"
	"github.com/calmdrive/calmdrive/internal/trip"
)

type stubPlanner struct {
	resp    *routing.DirectionsResponse
	err     error
	lastReq routing.DirectionsRequest
}

func (s *stubPlanner) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type stubProfiles struct {
	triggers stress.TriggerSet
	prefs    []profile.CalmingPreference
}

func (s *stubProfiles) TriggerSet(ctx context.Context, userID string) (stress.TriggerSet, error) {
	return s.triggers, nil
}

func (s *stubProfiles) Preferences(ctx context.Context, userID string) ([]profile.CalmingPreference, error) {
	return s.prefs, nil
}

func highwayRoute() routing.Route {
	return routing.Route{
		Summary:         "A10",
		DistanceMeters:  9000,
		DurationSeconds: 1200,
		Steps: []routing.Step{
			{Instruction: "Merge onto the highway", Maneuver: "merge", End: &routing.Coordinate{Lat: 52.35, Lon: 4.90}},
			{Instruction: "Continue straight", End: &routing.Coordinate{Lat: 52.40, Lon: 4.95}},
		},
	}
}

func quietRoute() routing.Route {
	return routing.Route{
		Summary:         "Kerkstraat",
		DistanceMeters:  10500,
		DurationSeconds: 1500,
		Steps: []routing.Step{
			{Instruction: "Turn left onto Kerkstraat", End: &routing.Coordinate{Lat: 52.36, Lon: 4.88}},
			{Instruction: "Continue straight", End: &routing.Coordinate{Lat: 52.41, Lon: 4.93}},
		},
	}
}

func newService(planner *stubPlanner, profiles *stubProfiles) *trip.Service {
	return trip.NewService(trip.ServiceConfig{
		Planner:  planner,
		Profiles: profiles,
	})
}

func TestService_Plan_ScoresAndStoresRoutes(t *testing.T) {
	planner := &stubPlanner{
		resp: &routing.DirectionsResponse{Routes: []routing.Route{highwayRoute(), quietRoute()}},
	}
	svc := newService(planner, &stubProfiles{})

	result, err := svc.Plan(context.Background(), trip.PlanRequest{
		UserID:      "usr_1",
		Origin:      "Amsterdam Centraal",
		Destination: "Utrecht Centraal",
	})
	require.NoError(t, err)
	require.Len(t, result.Routes, 2)

	assert.True(t, planner.lastReq.Alternatives)
	assert.Equal(t, "Amsterdam Centraal", planner.lastReq.Origin.Address)

	assert.Equal(t, "route_1", result.Routes[0].ID)
	assert.Equal(t, "A10", result.Routes[0].Name)
	assert.Less(t, result.Routes[0].CalmScore, result.Routes[1].CalmScore)
	assert.False(t, result.Routes[0].IsRecommended)
	assert.True(t, result.Routes[1].IsRecommended)
}

func TestService_Plan_AppliesUserTriggers(t *testing.T) {
	planner := &stubPlanner{
		resp: &routing.DirectionsResponse{Routes: []routing.Route{highwayRoute()}},
	}
	baseline := newService(planner, &stubProfiles{})
	base, err := baseline.Plan(context.Background(), trip.PlanRequest{UserID: "usr_1", Origin: "A", Destination: "B"})
	require.NoError(t, err)

	triggered := newService(planner, &stubProfiles{
		triggers: stress.NewTriggerSet(stress.TypeHighways),
	})
	withTriggers, err := triggered.Plan(context.Background(), trip.PlanRequest{UserID: "usr_1", Origin: "A", Destination: "B"})
	require.NoError(t, err)

	assert.Less(t, withTriggers.Routes[0].CalmScore, base.Routes[0].CalmScore)
}

func TestService_Plan_NoRoutes(t *testing.T) {
	planner := &stubPlanner{resp: &routing.DirectionsResponse{}}
	svc := newService(planner, &stubProfiles{})

	_, err := svc.Plan(context.Background(), trip.PlanRequest{UserID: "usr_1", Origin: "A", Destination: "B"})
	assert.ErrorIs(t, err, trip.ErrNoRoutesFound)
}

func TestService_Plan_ProviderError(t *testing.T) {
	planner := &stubPlanner{err: routing.ErrProviderUnavailable}
	svc := newService(planner, &stubProfiles{})

	_, err := svc.Plan(context.Background(), trip.PlanRequest{UserID: "usr_1", Origin: "A", Destination: "B"})
	assert.ErrorIs(t, err, routing.ErrProviderUnavailable)
}

func TestService_Prepare_BuildsBriefing(t *testing.T) {
	planner := &stubPlanner{
		resp: &routing.DirectionsResponse{Routes: []routing.Route{highwayRoute()}},
	}
	svc := newService(planner, &stubProfiles{
		prefs: []profile.CalmingPreference{
			{Type: profile.PreferenceCalmingMusic, Effectiveness: 4},
			{Type: profile.PreferencePullingOver, Effectiveness: 3},
		},
	})

	_, err := svc.Plan(context.Background(), trip.PlanRequest{UserID: "usr_1", Origin: "A", Destination: "B"})
	require.NoError(t, err)

	prep, err := svc.Prepare(context.Background(), trip.PrepareRequest{UserID: "usr_1", RouteID: "route_1"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Review stress points below",
		"Set phone to Do Not Disturb",
		"Prepare calming playlist",
		"Identify potential rest stops along route",
	}, prep.Checklist)

	require.NotEmpty(t, prep.StressPoints)
	highway := prep.StressPoints[0]
	assert.Equal(t, stress.TypeHighways, highway.Type)
	assert.Equal(t, "Stay in the middle lane when possible. Maintain a steady speed and keep safe following distance.", highway.Tip)

	assert.Equal(t, "4-7-8 Breathing", prep.BreathingExercise.Name)
	assert.Equal(t, 120, prep.BreathingExercise.DurationSeconds)
	assert.Len(t, prep.BreathingExercise.Instructions, 4)
}

func TestService_Prepare_UnknownRoute(t *testing.T) {
	planner := &stubPlanner{
		resp: &routing.DirectionsResponse{Routes: []routing.Route{highwayRoute()}},
	}
	svc := newService(planner, &stubProfiles{})

	_, err := svc.Prepare(context.Background(), trip.PrepareRequest{UserID: "usr_1", RouteID: "route_9"})
	assert.ErrorIs(t, err, trip.ErrRouteNotFound)
}

func TestService_Prepare_SessionsArePerUser(t *testing.T) {
	planner := &stubPlanner{
		resp: &routing.DirectionsResponse{Routes: []routing.Route{highwayRoute()}},
	}
	svc := newService(planner, &stubProfiles{})

	_, err := svc.Plan(context.Background(), trip.PlanRequest{UserID: "usr_1", Origin: "A", Destination: "B"})
	require.NoError(t, err)

	// Another user planning must not evict or expose the first session
	_, err = svc.Plan(context.Background(), trip.PlanRequest{UserID: "usr_2", Origin: "C", Destination: "D"})
	require.NoError(t, err)

	_, err = svc.Prepare(context.Background(), trip.PrepareRequest{UserID: "usr_1", RouteID: "route_1"})
	assert.NoError(t, err)
}

func TestService_Prepare_DefaultTipForUnknownType(t *testing.T) {
	assert.Equal(t, "Take your time and stay calm. You've got this.", trip.TipFor(stress.PointType("SOMETHING_ELSE")))
}

func TestSessionStore_Expiry(t *testing.T) {
	store := trip.NewSessionStore(20 * time.Millisecond)
	store.Put("usr_1", []stress.AnalyzedRoute{{ID: "route_1"}})

	_, ok := store.Get("usr_1", "route_1")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	_, ok = store.Get("usr_1", "route_1")
	assert.False(t, ok)
}
