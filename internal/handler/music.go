package handler

import (
	"log/slog"
	"net/http"

	"github.com/ngvan/tunebox/internal/music"
)

// MusicHandler exposes song search and recommendations. It depends only on
// the music interfaces, so swapping the stub provider for a real one never
// touches this file.
type MusicHandler struct {
	search      music.SearchProvider
	recommender music.Recommender
	logger      *slog.Logger
}

// NewMusicHandler creates a MusicHandler.
func NewMusicHandler(search music.SearchProvider, recommender music.Recommender, logger *slog.Logger) *MusicHandler {
	return &MusicHandler{search: search, recommender: recommender, logger: logger}
}

// HandleSearch answers a free-text song search.
//
// HTTP: GET /api/search?q=<query>
func (h *MusicHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	query := r.URL.Query().Get("q")
	results, err := h.search.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("search provider failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "provider_error", Message: "song search is unavailable"})
		return
	}
	if results == nil {
		results = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"results": results})
}

// HandleRecommendations returns suggested songs for the caller.
//
// HTTP: GET /api/recommendations
func (h *MusicHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	results, err := h.recommender.Recommend(r.Context(), username)
	if err != nil {
		h.logger.Error("recommender failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "provider_error", Message: "recommendations are unavailable"})
		return
	}
	if results == nil {
		results = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"results": results})
}
