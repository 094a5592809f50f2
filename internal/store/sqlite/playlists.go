package sqlite

import (
	"context"

	"github.com/ngvan/tunebox/internal/model"
	"github.com/ngvan/tunebox/internal/store"
)

// LoadPlaylists returns the full playlists table in insertion order
// (SQLite rowid order — rows keep the order they were inserted in).
// The songs column is decoded into the domain's []string here; nothing
// above the gateway ever sees the encoded form.
func (db *DB) LoadPlaylists(ctx context.Context) ([]model.Playlist, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT username, playlist_name, songs, public FROM playlists ORDER BY rowid`)
	if err != nil {
		db.warnLoadFailed("playlists", err)
		return []model.Playlist{}, nil
	}
	defer rows.Close()

	var playlists []model.Playlist
	for rows.Next() {
		var p model.Playlist
		var songs string
		if err := rows.Scan(&p.Username, &p.Name, &songs, &p.Public); err != nil {
			db.warnLoadFailed("playlists", err)
			return []model.Playlist{}, nil
		}
		p.Songs = store.DecodeSongs(songs)
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		db.warnLoadFailed("playlists", err)
		return []model.Playlist{}, nil
	}

	return playlists, nil
}

// ReplacePlaylists overwrites the playlists table with the given snapshot.
// Snapshot order becomes the new insertion order.
func (db *DB) ReplacePlaylists(ctx context.Context, playlists []model.Playlist) error {
	return db.replaceTable(ctx, "playlists",
		`INSERT INTO playlists (username, playlist_name, songs, public)
		 VALUES (?, ?, ?, ?)`,
		len(playlists),
		func(i int) []any {
			p := playlists[i]
			return []any{p.Username, p.Name, store.EncodeSongs(p.Songs), p.Public}
		},
	)
}
