package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calmdrive/calmdrive/internal/api/models"
	"github.com/calmdrive/calmdrive/internal/api/response"
	"github.com/calmdrive/calmdrive/internal/routing"
	"github.com/calmdrive/calmdrive/internal/trip"
)

// TripHandler handles route planning and pre-drive preparation endpoints.
type TripHandler struct {
	trips *trip.Service
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(trips *trip.Service) *TripHandler {
	return &TripHandler{trips: trips}
}

// PlanRoutes handles POST /v1/routes/plan - fetch and score route
// alternatives between two places.
func (h *TripHandler) PlanRoutes(w http.ResponseWriter, r *http.Request) {
	var input models.RoutePlanRequest
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

	req := trip.PlanRequest{
		UserID:      input.UserID,
		Origin:      input.Origin,
		Destination: input.Destination,
	}
	if input.DepartureTime != nil {
		req.DepartureTime = input.DepartureTime.Time()
	}

	result, err := h.trips.Plan(r.Context(), req)
	if err != nil {
		writePlanError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// PrepareRoute handles POST /v1/routes/prepare - build the pre-drive
// briefing for a previously planned route.
func (h *TripHandler) PrepareRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RoutePrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	fieldErrors := requireFields(
		requiredField{"userId", input.UserID},
		requiredField{"routeId", input.RouteID},
	)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	prep, err := h.trips.Prepare(r.Context(), trip.PrepareRequest{
		UserID:  input.UserID,
		RouteID: input.RouteID,
	})
	if err != nil {
		if errors.Is(err, trip.ErrRouteNotFound) {
			response.NotFound(w, r, err.Error())
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, prep)
}

// writePlanError maps trip planning failures to problem responses.
func writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, trip.ErrNoRoutesFound):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, routing.ErrInvalidCoordinates):
		response.BadRequest(w, r, "invalid origin or destination", nil)
	case errors.Is(err, routing.ErrRateLimitExceeded):
		response.TooManyRequests(w, r, "routing provider rate limit exceeded")
	case errors.Is(err, routing.ErrNoRouteFound):
		response.NotFound(w, r, routing.ErrNoRouteFound.Error())
	case errors.Is(err, routing.ErrProviderUnavailable):
		response.BadGateway(w, r, "routing provider unavailable")
	default:
		response.InternalError(w, r, "internal server error")
	}
}

// requiredField pairs a request field name with its submitted value.
type requiredField struct {
	name  string
	value string
}

// requireFields returns a field error for every blank required value,
// in argument order.
func requireFields(fields ...requiredField) []models.FieldError {
	var fieldErrors []models.FieldError
	for _, f := range fields {
		if f.value == "" {
			fieldErrors = append(fieldErrors, models.FieldError{Field: f.name, Message: "required"})
		}
	}
	return fieldErrors
}
