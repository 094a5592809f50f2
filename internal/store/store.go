// Package store defines the persistence gateway for the three backing tables.
//
// THE WHOLE-TABLE CONTRACT:
// Persistence here is deliberately coarse: callers load a full snapshot of a
// table, mutate it in memory, and replace the whole table on the way back.
// The observable contract is load-all, mutate-one, durable-after-return.
// It keeps every caller trivially simple at the cost of ruling out concurrent
// writers — this application serves one logical session per process.
//
// Replace is transactional per table but NOT across tables: a crash between
// replacing playlists and appending to the activity log leaves the log behind
// the mutation. That window is accepted and documented rather than hidden.
package store

import (
	"context"

	"github.com/ngvan/tunebox/internal/model"
)

// Gateway abstracts the backing store behind whole-table snapshots.
//
// Load methods degrade gracefully: implementations log a warning and return
// an empty snapshot when the backing store cannot be read, so an interactive
// session stays usable. Replace failures are real errors — the in-memory
// snapshot is then ahead of disk until the next load.
type Gateway interface {
	LoadUsers(ctx context.Context) ([]model.User, error)
	ReplaceUsers(ctx context.Context, users []model.User) error

	LoadPlaylists(ctx context.Context) ([]model.Playlist, error)
	ReplacePlaylists(ctx context.Context, playlists []model.Playlist) error

	LoadActivity(ctx context.Context) ([]model.ActivityEntry, error)
	ReplaceActivity(ctx context.Context, entries []model.ActivityEntry) error
}
