package handler

import (
	"net/http"
	"time"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/service"
)

// ProfileRequest is the body of PATCH /me. Omitted fields are left alone;
// an empty photo_url removes the photo.
type ProfileRequest struct {
	DisplayName *string `json:"display_name"`
	PhotoURL    *string `json:"photo_url"`
}

// ProfileResponse is the wire form of the caller's profile.
type ProfileResponse struct {
	UID         string              `json:"uid"`
	Email       string              `json:"email,omitempty"`
	DisplayName string              `json:"display_name"`
	PhotoURL    string              `json:"photo_url,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Stats       domain.ProfileStats `json:"stats"`
}

// GetProfile handles GET /me.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.profiles.Get(r.Context(), currentUser(r))
	if err != nil {
		writeServiceError(w, r, err, "profile not found")
		return
	}
	writeJSON(w, r, http.StatusOK, profileToResponse(view))
}

// UpdateProfile handles PATCH /me.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	view, err := s.profiles.Update(r.Context(), currentUser(r), domain.ProfilePatch{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		writeServiceError(w, r, err, "profile not found")
		return
	}
	writeJSON(w, r, http.StatusOK, profileToResponse(view))
}

func profileToResponse(v service.ProfileView) ProfileResponse {
	return ProfileResponse{
		UID:         v.Profile.UID,
		Email:       v.Profile.Email,
		DisplayName: v.Profile.DisplayName,
		PhotoURL:    v.Profile.PhotoURL,
		CreatedAt:   v.Profile.CreatedAt,
		UpdatedAt:   v.Profile.UpdatedAt,
		Stats:       v.Stats,
	}
}
