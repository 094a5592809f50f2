package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ngvan/tunebox/internal/apperror"
	"github.com/ngvan/tunebox/internal/model"
	"github.com/ngvan/tunebox/internal/store"
)

// Recorder is the activity-log capability the other services depend on.
// Only ActivityService implements it in production; tests substitute a spy.
type Recorder interface {
	Record(ctx context.Context, username, activity string) error
}

// DefaultMaxEntriesPerUser caps the per-user rolling window of the activity
// log. Zero disables the cap (unbounded, the historical behaviour).
const DefaultMaxEntriesPerUser = 1000

// ActivityService is the append-only event recorder. Entries are immutable
// once written; the only pruning is the per-user rolling retention window
// applied at append time.
type ActivityService struct {
	gateway    store.Gateway
	logger     *slog.Logger
	now        func() time.Time
	maxPerUser int
}

var _ Recorder = (*ActivityService)(nil)

// NewActivityService creates an ActivityService. maxPerUser bounds the log
// per user (0 = unbounded). The clock is the wall clock; tests override it
// via NewActivityServiceWithClock.
func NewActivityService(gateway store.Gateway, logger *slog.Logger, maxPerUser int) *ActivityService {
	return NewActivityServiceWithClock(gateway, logger, maxPerUser, time.Now)
}

// NewActivityServiceWithClock is NewActivityService with an injected clock.
func NewActivityServiceWithClock(gateway store.Gateway, logger *slog.Logger, maxPerUser int, now func() time.Time) *ActivityService {
	return &ActivityService{
		gateway:    gateway,
		logger:     logger,
		now:        now,
		maxPerUser: maxPerUser,
	}
}

// Record appends one entry for username, stamped with the current wall-clock
// time. Append always succeeds logically; only a backing-store write failure
// surfaces, as a storage error.
func (s *ActivityService) Record(ctx context.Context, username, activity string) error {
	entries, err := s.gateway.LoadActivity(ctx)
	if err != nil {
		return apperror.Storage("load activity log", err)
	}

	entries = append(entries, model.ActivityEntry{
		Username:  username,
		Activity:  activity,
		Timestamp: s.now(),
	})

	entries = s.applyRetention(entries, username)

	if err := s.gateway.ReplaceActivity(ctx, entries); err != nil {
		return apperror.Storage("append activity entry", err)
	}

	s.logger.Debug("activity recorded",
		slog.String("username", username),
		slog.String("activity", activity),
	)
	return nil
}

// ListFor returns the entries for one user in storage order — oldest first,
// since entries are appended and never reordered.
func (s *ActivityService) ListFor(ctx context.Context, username string) ([]model.ActivityEntry, error) {
	entries, err := s.gateway.LoadActivity(ctx)
	if err != nil {
		return nil, apperror.Storage("load activity log", err)
	}

	var mine []model.ActivityEntry
	for _, e := range entries {
		if e.Username == username {
			mine = append(mine, e)
		}
	}
	return mine, nil
}

// applyRetention drops the oldest entries of username beyond the per-user
// cap. Other users' entries and the relative order of everything kept are
// untouched.
func (s *ActivityService) applyRetention(entries []model.ActivityEntry, username string) []model.ActivityEntry {
	if s.maxPerUser <= 0 {
		return entries
	}

	count := 0
	for _, e := range entries {
		if e.Username == username {
			count++
		}
	}
	excess := count - s.maxPerUser
	if excess <= 0 {
		return entries
	}

	kept := entries[:0]
	for _, e := range entries {
		if excess > 0 && e.Username == username {
			excess--
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
