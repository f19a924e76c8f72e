package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/calmdrive/calmdrive/internal/api/models"
	"github.com/calmdrive/calmdrive/internal/api/response"
	"github.com/calmdrive/calmdrive/internal/drive"
	"github.com/calmdrive/calmdrive/internal/profile"
)

// DriveHandler handles drive lifecycle and debrief endpoints.
type DriveHandler struct {
	drives *drive.Service
}

// NewDriveHandler creates a new DriveHandler.
func NewDriveHandler(drives *drive.Service) *DriveHandler {
	return &DriveHandler{drives: drives}
}

// StartDrive handles POST /v1/drives/start. A user can have at most one
// drive in progress; starting a second one is a conflict.
func (h *DriveHandler) StartDrive(w http.ResponseWriter, r *http.Request) {
	var input models.DriveStartRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	fieldErrors := requireFields(
		requiredField{"userId", input.UserID},
		requiredField{"origin", input.Origin},
		requiredField{"destination", input.Destination},
	)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	started, err := h.drives.Start(r.Context(), drive.StartRequest{
		UserID:            input.UserID,
		Origin:            input.Origin,
		Destination:       input.Destination,
		SelectedRouteType: input.SelectedRouteType,
		PreDriveStress:    input.PreDriveStress,
	})
	if err != nil {
		h.writeDriveError(w, r, err)
		return
	}

	resp := newDriveResponse(started)
	response.Created(w, r, "/v1/drives/"+started.ID, resp)
}

// GetDrive handles GET /v1/drives/{driveId} - drive detail with events.
func (h *DriveHandler) GetDrive(w http.ResponseWriter, r *http.Request) {
	driveID := chi.URLParam(r, "driveId")

	d, err := h.drives.Get(r.Context(), driveID)
	if err != nil {
		h.writeDriveError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, newDriveResponse(d))
}

// EndDrive handles POST /v1/drives/{driveId}/end.
func (h *DriveHandler) EndDrive(w http.ResponseWriter, r *http.Request) {
	driveID := chi.URLParam(r, "driveId")

	result, err := h.drives.End(r.Context(), driveID)
	if err != nil {
		h.writeDriveError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.DriveEndResponse{
		Drive:           newDriveResponse(result.Drive),
		DurationMinutes: result.DurationMinutes,
		Summary: models.DriveSummary{
			EventsCount:            result.Summary.EventsCount,
			InterventionsTriggered: result.Summary.InterventionsTriggered,
			ReroutesOffered:        result.Summary.ReroutesOffered,
			ReroutesAccepted:       result.Summary.ReroutesAccepted,
			AvgStressLevel:         result.Summary.AvgStressLevel,
		},
	})
}

// RecordEvent handles POST /v1/drives/{driveId}/events.
func (h *DriveHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	driveID := chi.URLParam(r, "driveId")

	var input models.DriveEventRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if !validEventType(input.Type) {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "type", Message: "unknown event type"},
		})
		return
	}

	event, err := h.drives.RecordEvent(r.Context(), driveID, drive.EventInput{
		Type:        drive.EventType(input.Type),
		StressLevel: input.StressLevel,
		Details:     input.Details,
	})
	if err != nil {
		h.writeDriveError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusCreated, models.DriveEventResponse{
		ID:          event.ID,
		Timestamp:   models.Timestamp(event.Timestamp),
		Type:        string(event.Type),
		StressLevel: event.StressLevel,
		Details:     event.Details,
	})
}

// AcceptReroute handles POST /v1/drives/{driveId}/accept-reroute.
func (h *DriveHandler) AcceptReroute(w http.ResponseWriter, r *http.Request) {
	driveID := chi.URLParam(r, "driveId")

	var input models.AcceptRerouteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	accepted, err := h.drives.AcceptReroute(r.Context(), driveID, drive.AcceptRerouteInput{
		RouteName:            input.RouteName,
		CalmScoreImprovement: input.CalmScoreImprovement,
	})
	if err != nil {
		h.writeDriveError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.AcceptRerouteResponse{
		Success:          true,
		ReroutesAccepted: accepted,
	})
}

// ActiveDrive handles GET /v1/users/{userId}/active-drive.
func (h *DriveHandler) ActiveDrive(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	active, err := h.drives.Active(r.Context(), userID)
	if err != nil {
		h.writeDriveError(w, r, err)
		return
	}
	if active == nil {
		response.JSON(w, r, http.StatusOK, models.ActiveDriveResponse{HasActiveDrive: false})
		return
	}

	resp := newDriveResponse(active.Drive)
	response.JSON(w, r, http.StatusOK, models.ActiveDriveResponse{
		HasActiveDrive:    true,
		Drive:             &resp,
		EventsCount:       active.EventsCount,
		LatestStressLevel: active.LatestStressLevel,
	})
}

// UserStats handles GET /v1/users/{userId}/stats - progress averages,
// weekly activity and the current daily driving streak.
func (h *DriveHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	stats, err := h.drives.UserStats(r.Context(), userID)
	if err != nil {
		h.writeDriveError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, stats)
}

// ListDrives handles GET /v1/users/{userId}/drives with optional status,
// limit and offset query parameters.
func (h *DriveHandler) ListDrives(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	filter := drive.ListFilter{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if status != string(drive.StatusInProgress) && status != string(drive.StatusCompleted) {
			response.BadRequest(w, r, "validation failed", []models.FieldError{
				{Field: "status", Message: "must be IN_PROGRESS or COMPLETED"},
			})
			return
		}
		filter.Status = drive.Status(status)
	}

	drives, total, err := h.drives.List(r.Context(), userID, filter)
	if err != nil {
		h.writeDriveError(w, r, err)
		return
	}

	items := make([]models.DriveResponse, 0, len(drives))
	for i := range drives {
		items = append(items, newDriveResponse(&drives[i]))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = drive.DefaultListLimit
	} else if limit > drive.MaxListLimit {
		limit = drive.MaxListLimit
	}

	response.JSON(w, r, http.StatusOK, models.DriveListResponse{
		Drives: items,
		Meta: models.PagedResponseMeta{
			Total:  total,
			Limit:  limit,
			Offset: filter.Offset,
		},
	})
}

// ProcessDebrief handles POST /v1/debrief/process - analyze a completed
// drive and produce learnings, profile suggestions and encouragement.
func (h *DriveHandler) ProcessDebrief(w http.ResponseWriter, r *http.Request) {
	var input models.DebriefProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	fieldErrors := requireFields(
		requiredField{"userId", input.UserID},
		requiredField{"driveId", input.DriveID},
	)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	result, err := h.drives.Debrief(r.Context(), drive.DebriefRequest{
		UserID:          input.UserID,
		DriveID:         input.DriveID,
		PostDriveStress: input.PostDriveStress,
	})
	if err != nil {
		h.writeDriveError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

func (h *DriveHandler) writeDriveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, drive.ErrDriveNotFound):
		response.NotFound(w, r, "drive")
	case errors.Is(err, profile.ErrUserNotFound):
		response.NotFound(w, r, "user")
	case errors.Is(err, drive.ErrActiveDriveExists):
		response.Conflict(w, r, err.Error())
	case errors.Is(err, drive.ErrDriveCompleted):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, drive.ErrDriveOwnership):
		response.Forbidden(w, r, err.Error())
	default:
		response.InternalError(w, r, "internal server error")
	}
}

func validEventType(t string) bool {
	for _, known := range drive.EventTypes() {
		if t == string(known) {
			return true
		}
	}
	return false
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// newDriveResponse converts a domain drive to its API shape.
func newDriveResponse(d *drive.Drive) models.DriveResponse {
	resp := models.DriveResponse{
		ID:                     d.ID,
		UserID:                 d.UserID,
		Status:                 string(d.Status()),
		StartedAt:              models.Timestamp(d.StartedAt),
		Origin:                 d.Origin,
		Destination:            d.Destination,
		SelectedRouteType:      d.SelectedRouteType,
		PreDriveStress:         d.PreDriveStress,
		PostDriveStress:        d.PostDriveStress,
		ReroutesOffered:        d.ReroutesOffered,
		ReroutesAccepted:       d.ReroutesAccepted,
		InterventionsTriggered: d.InterventionsTriggered,
		Rating:                 d.Rating,
		Events:                 make([]models.DriveEventResponse, 0, len(d.Events)),
	}
	if d.CompletedAt != nil {
		ts := models.Timestamp(*d.CompletedAt)
		resp.CompletedAt = &ts
	}
	for _, e := range d.Events {
		resp.Events = append(resp.Events, models.DriveEventResponse{
			ID:          e.ID,
			Timestamp:   models.Timestamp(e.Timestamp),
			Type:        string(e.Type),
			StressLevel: e.StressLevel,
			Details:     e.Details,
		})
	}
	return resp
}
