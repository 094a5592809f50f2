package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/ngvan/tunebox/internal/apperror"
	"github.com/ngvan/tunebox/internal/model"
	"github.com/ngvan/tunebox/internal/store"
)

// PlaylistConfig carries the tunable behaviour of the playlist service.
type PlaylistConfig struct {
	// ShareBaseURL is the prefix of generated share links,
	// e.g. "https://tunebox.example.com".
	ShareBaseURL string

	// StrictRename makes Edit re-check (owner, new name) uniqueness. The
	// historical behaviour allowed renames to collide, so this defaults
	// to off.
	StrictRename bool
}

// PlaylistService handles playlist CRUD, the song list, sharing, and export.
// Every successful mutation records one activity entry naming the action and
// the playlist.
type PlaylistService struct {
	gateway  store.Gateway
	activity Recorder
	logger   *slog.Logger
	cfg      PlaylistConfig
}

// NewPlaylistService creates a PlaylistService.
func NewPlaylistService(gateway store.Gateway, activity Recorder, logger *slog.Logger, cfg PlaylistConfig) *PlaylistService {
	if cfg.ShareBaseURL == "" {
		cfg.ShareBaseURL = "https://example.com"
	}
	return &PlaylistService{
		gateway:  gateway,
		activity: activity,
		logger:   logger,
		cfg:      cfg,
	}
}

// Create adds an empty playlist for owner. The name must be non-empty and
// not collide with another live playlist of the same owner.
func (s *PlaylistService) Create(ctx context.Context, owner, name string, public bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperror.ValidationFailed("name", "playlist name is required")
	}

	playlists, err := s.gateway.LoadPlaylists(ctx)
	if err != nil {
		return apperror.Storage("load playlists", err)
	}

	for _, p := range playlists {
		if p.Username == owner && p.Name == name {
			return apperror.Duplicate("playlist", name)
		}
	}

	playlists = append(playlists, model.Playlist{
		Username: owner,
		Name:     name,
		Public:   public,
	})

	if err := s.gateway.ReplacePlaylists(ctx, playlists); err != nil {
		return apperror.Storage("replace playlists", err)
	}

	s.record(ctx, owner, fmt.Sprintf("Created playlist '%s'", name))
	s.logger.Info("playlist created",
		slog.String("owner", owner),
		slog.String("name", name),
		slog.Bool("public", public),
	)
	return nil
}

// AddSong appends a song to the playlist's ordered sequence.
func (s *PlaylistService) AddSong(ctx context.Context, owner, name, song string) error {
	song = strings.TrimSpace(song)
	if song == "" {
		return apperror.ValidationFailed("song", "song name is required")
	}

	playlists, err := s.gateway.LoadPlaylists(ctx)
	if err != nil {
		return apperror.Storage("load playlists", err)
	}

	idx := s.find(playlists, owner, name)
	if idx < 0 {
		return apperror.NotFound("playlist", name)
	}

	playlists[idx].Songs = append(playlists[idx].Songs, song)

	if err := s.gateway.ReplacePlaylists(ctx, playlists); err != nil {
		return apperror.Storage("replace playlists", err)
	}

	s.record(ctx, owner, fmt.Sprintf("Added song '%s' to playlist '%s'", song, name))
	return nil
}

// Edit renames the playlist and/or retags its visibility in place. Songs are
// untouched. Under StrictRename a rename that would collide with another of
// the owner's playlists is rejected; otherwise collisions are allowed, as
// they always were.
func (s *PlaylistService) Edit(ctx context.Context, owner, name, newName string, newPublic bool) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return apperror.ValidationFailed("name", "playlist name is required")
	}

	playlists, err := s.gateway.LoadPlaylists(ctx)
	if err != nil {
		return apperror.Storage("load playlists", err)
	}

	idx := s.find(playlists, owner, name)
	if idx < 0 {
		return apperror.NotFound("playlist", name)
	}

	if s.cfg.StrictRename && newName != name {
		for i, p := range playlists {
			if i != idx && p.Username == owner && p.Name == newName {
				return apperror.Duplicate("playlist", newName)
			}
		}
	}

	playlists[idx].Name = newName
	playlists[idx].Public = newPublic

	if err := s.gateway.ReplacePlaylists(ctx, playlists); err != nil {
		return apperror.Storage("replace playlists", err)
	}

	s.record(ctx, owner, fmt.Sprintf("Edited playlist '%s'", name))
	return nil
}

// Delete removes all live playlists matching (owner, name). It is
// idempotent: deleting a playlist that does not exist is not an error.
func (s *PlaylistService) Delete(ctx context.Context, owner, name string) error {
	playlists, err := s.gateway.LoadPlaylists(ctx)
	if err != nil {
		return apperror.Storage("load playlists", err)
	}

	kept := playlists[:0]
	for _, p := range playlists {
		if p.Username == owner && p.Name == name {
			continue
		}
		kept = append(kept, p)
	}

	if err := s.gateway.ReplacePlaylists(ctx, kept); err != nil {
		return apperror.Storage("replace playlists", err)
	}

	s.record(ctx, owner, fmt.Sprintf("Deleted playlist '%s'", name))
	return nil
}

// Share returns the deterministic share link for a playlist. There is no
// access token behind it — the link is a stable URL shape derived from the
// owner and name, nothing more.
func (s *PlaylistService) Share(owner, name string) string {
	return fmt.Sprintf("%s/share/%s/%s",
		strings.TrimRight(s.cfg.ShareBaseURL, "/"),
		url.PathEscape(owner),
		url.PathEscape(name),
	)
}

// Export serializes the single matching playlist as CSV: a header row and
// one data row, the download format the app has always offered. The songs
// field uses the storage encoding, so re-parsing an export recovers the
// exact song sequence.
func (s *PlaylistService) Export(ctx context.Context, owner, name string) ([]byte, error) {
	playlists, err := s.gateway.LoadPlaylists(ctx)
	if err != nil {
		return nil, apperror.Storage("load playlists", err)
	}

	idx := s.find(playlists, owner, name)
	if idx < 0 {
		return nil, apperror.NotFound("playlist", name)
	}
	p := playlists[idx]

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{
		{"username", "playlist_name", "songs", "public"},
		{p.Username, p.Name, store.EncodeSongs(p.Songs), strconv.FormatBool(p.Public)},
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("exporting playlist %s: %w", name, err)
	}

	return buf.Bytes(), nil
}

// ListFor returns all live playlists owned by owner, in backing-store
// insertion order.
func (s *PlaylistService) ListFor(ctx context.Context, owner string) ([]model.Playlist, error) {
	playlists, err := s.gateway.LoadPlaylists(ctx)
	if err != nil {
		return nil, apperror.Storage("load playlists", err)
	}

	var mine []model.Playlist
	for _, p := range playlists {
		if p.Username == owner {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

// find returns the index of the first playlist matching (owner, name),
// or -1.
func (s *PlaylistService) find(playlists []model.Playlist, owner, name string) int {
	for i, p := range playlists {
		if p.Username == owner && p.Name == name {
			return i
		}
	}
	return -1
}

// record appends an activity entry, downgrading a failed append to a
// warning: the mutation already committed, and the log lagging the data is
// the accepted cross-table inconsistency of this storage model.
func (s *PlaylistService) record(ctx context.Context, owner, activity string) {
	if err := s.activity.Record(ctx, owner, activity); err != nil {
		s.logger.Warn("activity record failed",
			slog.String("username", owner),
			slog.String("activity", activity),
			slog.String("error", err.Error()),
		)
	}
}
