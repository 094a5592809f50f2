package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ngvan/tunebox/internal/model"
	"github.com/ngvan/tunebox/internal/store"
)

// mockGateway is an in-memory store.Gateway. It keeps real slices so the
// whole-table load/replace workflow is exercised exactly as in production,
// and it can be told to fail any replace to simulate a broken backing store.
type mockGateway struct {
	mu        sync.Mutex
	users     []model.User
	playlists []model.Playlist
	activity  []model.ActivityEntry

	failReplaceUsers     bool
	failReplacePlaylists bool
	failReplaceActivity  bool
}

var _ store.Gateway = (*mockGateway)(nil)

var errReplaceFailed = errors.New("mock: replace failed")

func (m *mockGateway) LoadUsers(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.User(nil), m.users...), nil
}

func (m *mockGateway) ReplaceUsers(_ context.Context, users []model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReplaceUsers {
		return errReplaceFailed
	}
	m.users = append([]model.User(nil), users...)
	return nil
}

func (m *mockGateway) LoadPlaylists(context.Context) ([]model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Playlist(nil), m.playlists...), nil
}

func (m *mockGateway) ReplacePlaylists(_ context.Context, playlists []model.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReplacePlaylists {
		return errReplaceFailed
	}
	m.playlists = append([]model.Playlist(nil), playlists...)
	return nil
}

func (m *mockGateway) LoadActivity(context.Context) ([]model.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ActivityEntry(nil), m.activity...), nil
}

func (m *mockGateway) ReplaceActivity(_ context.Context, entries []model.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReplaceActivity {
		return errReplaceFailed
	}
	m.activity = append([]model.ActivityEntry(nil), entries...)
	return nil
}

// entriesFor filters the recorded log by username, in append order.
func (m *mockGateway) entriesFor(username string) []model.ActivityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityEntry
	for _, e := range m.activity {
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out
}

// fakeClock hands out strictly increasing timestamps, one second apart.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}
