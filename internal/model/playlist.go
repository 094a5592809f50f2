package model

// Playlist is a named, owned collection of songs.
//
// Songs is a genuine ordered sequence in the domain. The backing store keeps
// it in a single text column; that encoding is the store package's concern
// and never leaks past it.
//
// Invariant: (Username, Name) is unique among live playlists at create time.
type Playlist struct {
	Username string   `json:"username" db:"username"`
	Name     string   `json:"name"     db:"playlist_name"`
	Songs    []string `json:"songs"    db:"songs"`
	Public   bool     `json:"public"   db:"public"`
}
