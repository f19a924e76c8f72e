package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calmdrive/calmdrive/internal/api/models"
	"github.com/calmdrive/calmdrive/internal/api/response"
	"github.com/calmdrive/calmdrive/internal/profile"
)

// ProfileHandler handles user profile endpoints.
type ProfileHandler struct {
	profiles *profile.Service
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *profile.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// CreateUser handles POST /v1/users - create a driver profile.
func (h *ProfileHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input models.UserProfileCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.profiles.Create(r.Context(), &input)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/users/"+created.ID+"/profile", created)
}

// GetProfile handles GET /v1/users/{userId}/profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, p)
}

// UpdateProfile handles PUT /v1/users/{userId}/profile - partial update.
// Absent fields keep their current values; trigger and preference lists
// replace the existing sets when present.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var input models.UserProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.profiles.Update(r.Context(), userID, &input)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteProfile handles DELETE /v1/users/{userId}/profile.
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	if err := h.profiles.Delete(r.Context(), userID); err != nil {
		h.writeProfileError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

func (h *ProfileHandler) writeProfileError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *profile.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "validation failed", validationErr.Errors)
	case errors.Is(err, profile.ErrUserNotFound):
		response.NotFound(w, r, "user")
	default:
		response.InternalError(w, r, "internal server error")
	}
}
