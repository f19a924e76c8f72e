package models

// RoutePlanRequest asks for scored route alternatives between two places.
type RoutePlanRequest struct {
	UserID        string     `json:"userId" validate:"required"`
	Origin        string     `json:"origin" validate:"required"`
	Destination   string     `json:"destination" validate:"required"`
	DepartureTime *Timestamp `json:"departureTime,omitempty"`
}

// RoutePrepareRequest asks for the pre-drive briefing for a planned route.
type RoutePrepareRequest struct {
	UserID  string `json:"userId" validate:"required"`
	RouteID string `json:"routeId" validate:"required"`
}
