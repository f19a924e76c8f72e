package models

// DriveStartRequest begins a new drive session.
type DriveStartRequest struct {
	UserID            string   `json:"userId" validate:"required"`
	Origin            string   `json:"origin" validate:"required"`
	Destination       string   `json:"destination" validate:"required"`
	SelectedRouteType string   `json:"selectedRouteType,omitempty"`
	PreDriveStress    *float64 `json:"preDriveStress,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// DriveEventRequest records an event during a drive.
type DriveEventRequest struct {
	Type        string         `json:"type" validate:"required"`
	StressLevel *float64       `json:"stressLevel,omitempty" validate:"omitempty,gte=0,lte=1"`
	Details     map[string]any `json:"details,omitempty"`
}

// AcceptRerouteRequest records that the driver took a suggested reroute.
type AcceptRerouteRequest struct {
	RouteName            string `json:"routeName"`
	CalmScoreImprovement int    `json:"calmScoreImprovement" validate:"gte=0"`
}

// AcceptRerouteResponse acknowledges a recorded reroute acceptance.
type AcceptRerouteResponse struct {
	Success          bool `json:"success"`
	ReroutesAccepted int  `json:"reroutesAccepted"`
}

// DebriefProcessRequest runs the post-drive debrief for a completed drive.
type DebriefProcessRequest struct {
	UserID          string   `json:"userId" validate:"required"`
	DriveID         string   `json:"driveId" validate:"required"`
	PostDriveStress *float64 `json:"postDriveStress,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// DriveEventResponse is a recorded drive event.
type DriveEventResponse struct {
	ID          string         `json:"id"`
	Timestamp   Timestamp      `json:"timestamp"`
	Type        string         `json:"type"`
	StressLevel *float64       `json:"stressLevel,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// DriveResponse is a drive with its recorded events.
type DriveResponse struct {
	ID                     string               `json:"id"`
	UserID                 string               `json:"userId"`
	Status                 string               `json:"status"`
	StartedAt              Timestamp            `json:"startedAt"`
	CompletedAt            *Timestamp           `json:"completedAt,omitempty"`
	Origin                 string               `json:"origin"`
	Destination            string               `json:"destination"`
	SelectedRouteType      string               `json:"selectedRouteType,omitempty"`
	PreDriveStress         *float64             `json:"preDriveStress,omitempty"`
	PostDriveStress        *float64             `json:"postDriveStress,omitempty"`
	ReroutesOffered        int                  `json:"reroutesOffered"`
	ReroutesAccepted       int                  `json:"reroutesAccepted"`
	InterventionsTriggered int                  `json:"interventionsTriggered"`
	Rating                 *int                 `json:"rating,omitempty"`
	Events                 []DriveEventResponse `json:"events"`
}

// DriveSummary aggregates a completed drive.
type DriveSummary struct {
	EventsCount            int      `json:"eventsCount"`
	InterventionsTriggered int      `json:"interventionsTriggered"`
	ReroutesOffered        int      `json:"reroutesOffered"`
	ReroutesAccepted       int      `json:"reroutesAccepted"`
	AvgStressLevel         *float64 `json:"avgStressLevel"`
}

// DriveEndResponse is the summary returned when a drive completes.
type DriveEndResponse struct {
	Drive           DriveResponse `json:"drive"`
	DurationMinutes int           `json:"durationMinutes"`
	Summary         DriveSummary  `json:"summary"`
}

// ActiveDriveResponse reports the user's in-progress drive, if any.
type ActiveDriveResponse struct {
	HasActiveDrive    bool           `json:"hasActiveDrive"`
	Drive             *DriveResponse `json:"drive,omitempty"`
	EventsCount       int            `json:"eventsCount,omitempty"`
	LatestStressLevel *float64       `json:"latestStressLevel,omitempty"`
}

// DriveListResponse is a page of drives, newest first.
type DriveListResponse struct {
	Drives []DriveResponse   `json:"drives"`
	Meta   PagedResponseMeta `json:"meta"`
}
