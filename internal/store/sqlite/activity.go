package sqlite

import (
	"context"
	"time"

	"github.com/ngvan/tunebox/internal/model"
)

// timestampFormat is how activity timestamps are stored in the timestamp
// column: RFC 3339 with sub-second precision. The column stays a plain text
// field, so rows written by earlier versions of the app remain readable.
const timestampFormat = time.RFC3339Nano

// LoadActivity returns the full activity log, oldest first. Entries with an
// unparseable timestamp keep their raw position but carry a zero time — the
// log never drops rows on read.
func (db *DB) LoadActivity(ctx context.Context) ([]model.ActivityEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT username, activity, timestamp FROM activity_log ORDER BY rowid`)
	if err != nil {
		db.warnLoadFailed("activity_log", err)
		return []model.ActivityEntry{}, nil
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		var ts string
		if err := rows.Scan(&e.Username, &e.Activity, &ts); err != nil {
			db.warnLoadFailed("activity_log", err)
			return []model.ActivityEntry{}, nil
		}
		e.Timestamp, _ = time.Parse(timestampFormat, ts)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		db.warnLoadFailed("activity_log", err)
		return []model.ActivityEntry{}, nil
	}

	return entries, nil
}

// ReplaceActivity overwrites the activity_log table with the given snapshot.
func (db *DB) ReplaceActivity(ctx context.Context, entries []model.ActivityEntry) error {
	return db.replaceTable(ctx, "activity_log",
		`INSERT INTO activity_log (username, activity, timestamp)
		 VALUES (?, ?, ?)`,
		len(entries),
		func(i int) []any {
			e := entries[i]
			return []any{e.Username, e.Activity, e.Timestamp.Format(timestampFormat)}
		},
	)
}
