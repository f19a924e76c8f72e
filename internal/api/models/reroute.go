package models

// RerouteCheckRequest asks whether a meaningfully calmer alternative exists
// from the driver's current position.
type RerouteCheckRequest struct {
	UserID           string `json:"userId" validate:"required"`
	CurrentLocation  Point  `json:"currentLocation" validate:"required"`
	Destination      Point  `json:"destination" validate:"required"`
	CurrentCalmScore *int   `json:"currentCalmScore,omitempty" validate:"omitempty,gte=0,lte=100"`
	DriveID          string `json:"driveId,omitempty"`
}
