package handlers

import (
	"net/http"

	"github.com/jstarsky/app-marvel-backend/internal/http/response"
	"github.com/jstarsky/app-marvel-backend/internal/models"
)

// GetProfile — GET /profile (защищён RequireAuth).
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "authorization_required", nil)
		return
	}

	user, profile, err := h.svc.Profile(r.Context(), id.UserID)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "", map[string]any{
		"user": toFullUserView(user, profile),
	})
}

// UpdateProfile — PUT /profile: частичное обновление, отсутствующие поля
// не трогаются.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "authorization_required", nil)
		return
	}

	var in struct {
		Phone  *string `json:"phone"`
		Avatar *string `json:"avatar"`
		Bio    *string `json:"bio"`
	}
	if err := decodeStrict(r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	upd := models.ProfileUpdate{
		Phone:     in.Phone,
		AvatarURL: in.Avatar,
		Bio:       in.Bio,
	}

	if _, err := h.svc.UpdateProfile(r.Context(), id.UserID, upd); err != nil {
		response.WriteError(w, err)
		return
	}

	user, profile, err := h.svc.Profile(r.Context(), id.UserID)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "", map[string]any{
		"user": toFullUserView(user, profile),
	})
}
