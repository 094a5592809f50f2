package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"reflect"
	"testing"

	"github.com/ngvan/tunebox/internal/apperror"
	"github.com/ngvan/tunebox/internal/store"
)

// newTestPlaylistService wires a PlaylistService against the in-memory
// gateway, with a real ActivityService on a deterministic clock so the
// activity side-effects can be asserted too.
func newTestPlaylistService(t *testing.T, cfg PlaylistConfig) (*PlaylistService, *mockGateway) {
	t.Helper()
	gw := &mockGateway{}
	logger := testLogger()
	activity := NewActivityServiceWithClock(gw, logger, 0, newFakeClock().Now)
	return NewPlaylistService(gw, activity, logger, cfg), gw
}

func TestCreatePlaylist(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	playlists, err := svc.ListFor(ctx, "alice")
	if err != nil {
		t.Fatalf("ListFor() error = %v", err)
	}
	if len(playlists) != 1 {
		t.Fatalf("ListFor() = %d playlists, want 1", len(playlists))
	}
	p := playlists[0]
	if p.Name != "Gym" || p.Public || len(p.Songs) != 0 {
		t.Errorf("created playlist = %+v", p)
	}
}

func TestCreatePlaylist_DuplicateName(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	err := svc.Create(ctx, "alice", "Gym", true)
	if !errors.Is(err, apperror.ErrDuplicate) {
		t.Fatalf("second Create() error = %v, want duplicate", err)
	}

	playlists, _ := svc.ListFor(ctx, "alice")
	if len(playlists) != 1 {
		t.Errorf("playlist count after duplicate create = %d, want 1", len(playlists))
	}
}

func TestCreatePlaylist_SameNameDifferentOwners(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	// Uniqueness is per owner, not global.
	if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
		t.Fatalf("alice Create() error = %v", err)
	}
	if err := svc.Create(ctx, "bob", "Gym", false); err != nil {
		t.Errorf("bob Create() with same name error = %v, want nil", err)
	}
}

func TestCreatePlaylist_EmptyName(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})

	err := svc.Create(context.Background(), "alice", "  ", false)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() blank name error = %v, want validation", err)
	}
}

func TestAddSong_PreservesOrder(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.AddSong(ctx, "alice", "Gym", "Song A"); err != nil {
		t.Fatalf("AddSong(A) error = %v", err)
	}
	if err := svc.AddSong(ctx, "alice", "Gym", "Song B"); err != nil {
		t.Fatalf("AddSong(B) error = %v", err)
	}

	playlists, _ := svc.ListFor(ctx, "alice")
	want := []string{"Song A", "Song B"}
	if !reflect.DeepEqual(playlists[0].Songs, want) {
		t.Errorf("Songs = %#v, want %#v", playlists[0].Songs, want)
	}
}

func TestAddSong_EmptySong(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := svc.AddSong(ctx, "alice", "Gym", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("AddSong(\"\") error = %v, want validation", err)
	}
}

func TestAddSong_MissingPlaylist(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})

	err := svc.AddSong(context.Background(), "alice", "Nope", "Song A")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AddSong() missing playlist error = %v, want not found", err)
	}
}

func TestEditPlaylist(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.AddSong(ctx, "alice", "Gym", "Song A"); err != nil {
		t.Fatalf("AddSong() error = %v", err)
	}

	if err := svc.Edit(ctx, "alice", "Gym", "Workout", true); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	playlists, _ := svc.ListFor(ctx, "alice")
	if len(playlists) != 1 {
		t.Fatalf("ListFor() = %d playlists, want 1", len(playlists))
	}
	p := playlists[0]
	if p.Name != "Workout" || !p.Public {
		t.Errorf("edited playlist = %+v", p)
	}
	if !reflect.DeepEqual(p.Songs, []string{"Song A"}) {
		t.Errorf("Edit() touched the songs: %#v", p.Songs)
	}
}

func TestEditPlaylist_EmptyNewName(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := svc.Edit(ctx, "alice", "Gym", "", true)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Edit() blank name error = %v, want validation", err)
	}
}

func TestEditPlaylist_RenameCollision(t *testing.T) {
	ctx := context.Background()

	t.Run("lenient by default", func(t *testing.T) {
		svc, _ := newTestPlaylistService(t, PlaylistConfig{})
		if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := svc.Create(ctx, "alice", "Chill", false); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := svc.Edit(ctx, "alice", "Chill", "Gym", false); err != nil {
			t.Errorf("Edit() colliding rename error = %v, want nil (lenient mode)", err)
		}
	})

	t.Run("strict rejects collision", func(t *testing.T) {
		svc, _ := newTestPlaylistService(t, PlaylistConfig{StrictRename: true})
		if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := svc.Create(ctx, "alice", "Chill", false); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		err := svc.Edit(ctx, "alice", "Chill", "Gym", false)
		if !errors.Is(err, apperror.ErrDuplicate) {
			t.Errorf("Edit() colliding rename error = %v, want duplicate (strict mode)", err)
		}
	})
}

func TestDeletePlaylist_Idempotent(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, "alice", "Gym"); err != nil {
		t.Fatalf("first Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, "alice", "Gym"); err != nil {
		t.Fatalf("second Delete() error = %v (must be idempotent)", err)
	}

	playlists, _ := svc.ListFor(ctx, "alice")
	if len(playlists) != 0 {
		t.Errorf("playlists after delete = %d, want 0", len(playlists))
	}
}

func TestDeletePlaylist_LeavesOtherOwnersAlone(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	if err := svc.Create(ctx, "alice", "Gym", false); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Create(ctx, "bob", "Gym", false); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, "alice", "Gym"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	bobs, _ := svc.ListFor(ctx, "bob")
	if len(bobs) != 1 {
		t.Errorf("bob's playlists after alice's delete = %d, want 1", len(bobs))
	}
}

func TestShare_DeterministicURL(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{ShareBaseURL: "https://tunebox.example.com"})

	link := svc.Share("alice", "Gym")
	want := "https://tunebox.example.com/share/alice/Gym"
	if link != want {
		t.Errorf("Share() = %q, want %q", link, want)
	}

	// Same inputs, same link — there is no token behind it.
	if again := svc.Share("alice", "Gym"); again != link {
		t.Errorf("Share() not deterministic: %q vs %q", again, link)
	}
}

func TestShare_EscapesAwkwardNames(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{ShareBaseURL: "https://tunebox.example.com"})

	link := svc.Share("alice", "Road Trip/2024")
	want := "https://tunebox.example.com/share/alice/Road%20Trip%2F2024"
	if link != want {
		t.Errorf("Share() = %q, want %q", link, want)
	}
}

func TestExport_RoundTrip(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	if err := svc.Create(ctx, "alice", "Gym", true); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, song := range []string{"Song A", "Hello, World"} {
		if err := svc.AddSong(ctx, "alice", "Gym", song); err != nil {
			t.Fatalf("AddSong(%q) error = %v", song, err)
		}
	}

	data, err := svc.Export(ctx, "alice", "Gym")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("re-parsing export: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("export has %d rows, want header + 1 data row", len(records))
	}

	header := []string{"username", "playlist_name", "songs", "public"}
	if !reflect.DeepEqual(records[0], header) {
		t.Errorf("header = %#v, want %#v", records[0], header)
	}

	row := records[1]
	if row[0] != "alice" || row[1] != "Gym" || row[3] != "true" {
		t.Errorf("data row = %#v", row)
	}
	songs := store.DecodeSongs(row[2])
	if !reflect.DeepEqual(songs, []string{"Song A", "Hello, World"}) {
		t.Errorf("songs from export = %#v", songs)
	}
}

func TestExport_MissingPlaylist(t *testing.T) {
	svc, _ := newTestPlaylistService(t, PlaylistConfig{})

	_, err := svc.Export(context.Background(), "alice", "Nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Export() missing playlist error = %v, want not found", err)
	}
}

func TestMutationsRecordOneEntryEachInOrder(t *testing.T) {
	svc, gw := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	steps := []struct {
		run  func() error
		want string
	}{
		{func() error { return svc.Create(ctx, "alice", "Gym", false) }, "Created playlist 'Gym'"},
		{func() error { return svc.AddSong(ctx, "alice", "Gym", "Song A") }, "Added song 'Song A' to playlist 'Gym'"},
		{func() error { return svc.Edit(ctx, "alice", "Gym", "Workout", true) }, "Edited playlist 'Gym'"},
		{func() error { return svc.Delete(ctx, "alice", "Workout") }, "Deleted playlist 'Workout'"},
	}

	for i, step := range steps {
		before := len(gw.entriesFor("alice"))
		if err := step.run(); err != nil {
			t.Fatalf("step %d error = %v", i, err)
		}
		entries := gw.entriesFor("alice")
		if len(entries) != before+1 {
			t.Fatalf("step %d appended %d entries, want exactly 1", i, len(entries)-before)
		}
		if got := entries[len(entries)-1].Activity; got != step.want {
			t.Errorf("step %d activity = %q, want %q", i, got, step.want)
		}
	}

	// Monotonic log ordering: each timestamp >= its predecessor.
	entries := gw.entriesFor("alice")
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[i-1].Timestamp) {
			t.Errorf("entry %d timestamp %v precedes entry %d timestamp %v",
				i, entries[i].Timestamp, i-1, entries[i-1].Timestamp)
		}
	}
}

func TestFailedValidationRecordsNothing(t *testing.T) {
	svc, gw := newTestPlaylistService(t, PlaylistConfig{})
	ctx := context.Background()

	_ = svc.Create(ctx, "alice", "", false)
	_ = svc.AddSong(ctx, "alice", "Nope", "Song A")

	if entries := gw.entriesFor("alice"); len(entries) != 0 {
		t.Errorf("failed calls recorded %d activity entries, want 0", len(entries))
	}
}

func TestStorageFailureSurfacesAsStorageError(t *testing.T) {
	svc, gw := newTestPlaylistService(t, PlaylistConfig{})
	gw.failReplacePlaylists = true

	err := svc.Create(context.Background(), "alice", "Gym", false)
	if !errors.Is(err, apperror.ErrStorage) {
		t.Errorf("Create() with broken store error = %v, want storage error", err)
	}
}
