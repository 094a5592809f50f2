package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ngvan/tunebox/internal/apperror"
	"github.com/ngvan/tunebox/internal/avatar"
	"github.com/ngvan/tunebox/internal/service"
)

// ProfileHandler exposes profile editing and the avatar upload.
type ProfileHandler struct {
	users   *service.UserService
	avatars *avatar.Store
	logger  *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(users *service.UserService, avatars *avatar.Store, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{users: users, avatars: avatars, logger: logger}
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// HandleUpdate rewrites the caller's full name and email.
//
// HTTP: PUT /api/profile
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	if err := h.users.UpdateProfile(r.Context(), username, req.FullName, req.Email); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAvatarUpload accepts a multipart upload under the "avatar" field,
// stores the 150×150 thumbnail, and records the new ref on the user. An
// oversized or undecodable file is rejected with no store mutation.
//
// HTTP: POST /api/profile/avatar (multipart/form-data)
func (h *ProfileHandler) HandleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	// The route also carries a MaxBytesReader; the early 413 from a huge
	// body and the store's own limit both land here as a validation error.
	file, header, err := r.FormFile("avatar")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, apperror.ValidationFailed("avatar", "avatar must be 5 MB or smaller"))
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "multipart field 'avatar' is required"})
		return
	}
	defer file.Close()

	ref, err := h.avatars.Save(username, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.SetAvatar(r.Context(), username, ref); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatarRef": ref})
}
