package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ngvan/tunebox/internal/auth"
	"github.com/ngvan/tunebox/internal/model"
	"github.com/ngvan/tunebox/internal/service"
)

// PlaylistHandler exposes playlist CRUD, the song list, sharing, and the
// CSV download. Ownership is implicit: every route operates on the
// authenticated user's playlists only.
type PlaylistHandler struct {
	playlists *service.PlaylistService
	logger    *slog.Logger
}

// NewPlaylistHandler creates a PlaylistHandler.
func NewPlaylistHandler(playlists *service.PlaylistService, logger *slog.Logger) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, logger: logger}
}

type createPlaylistRequest struct {
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

type editPlaylistRequest struct {
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

type addSongRequest struct {
	Song string `json:"song"`
}

// requireUser pulls the authenticated username out of the context.
// RequireAuth guards these routes, so a miss means broken wiring, but we
// still fail closed.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return "", false
	}
	return username, true
}

// HandleList returns the caller's playlists in insertion order.
//
// HTTP: GET /api/playlists
func (h *PlaylistHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	playlists, err := h.playlists.ListFor(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	if playlists == nil {
		playlists = []model.Playlist{}
	}

	writeJSON(w, http.StatusOK, playlists)
}

// HandleCreate creates an empty playlist.
//
// HTTP: POST /api/playlists
func (h *PlaylistHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid playlist JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	if err := h.playlists.Create(r.Context(), username, req.Name, req.Public); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

// HandleEdit renames/retags a playlist.
//
// HTTP: PUT /api/playlists/{name}
func (h *PlaylistHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req editPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	if err := h.playlists.Edit(r.Context(), username, r.PathValue("name"), req.Name, req.Public); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes a playlist. Deleting a playlist that does not exist
// still returns 204 — the operation is idempotent.
//
// HTTP: DELETE /api/playlists/{name}
func (h *PlaylistHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.playlists.Delete(r.Context(), username, r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAddSong appends a song to a playlist.
//
// HTTP: POST /api/playlists/{name}/songs
func (h *PlaylistHandler) HandleAddSong(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	if err := h.playlists.AddSong(r.Context(), username, r.PathValue("name"), req.Song); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleShare returns the deterministic share link.
//
// HTTP: GET /api/playlists/{name}/share
func (h *PlaylistHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	link := h.playlists.Share(username, r.PathValue("name"))
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

// HandleExport streams the playlist as a CSV download named {name}.csv.
//
// HTTP: GET /api/playlists/{name}/export
func (h *PlaylistHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	name := r.PathValue("name")
	data, err := h.playlists.Export(r.Context(), username, name)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write export", slog.String("error", err.Error()))
	}
}
