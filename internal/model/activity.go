package model

import "time"

// ActivityEntry is one immutable audit-log row: who did what, and when.
// Entries are append-only — there is no update or delete path.
//
// Timestamp is a time.Time in the domain; the store persists it as an
// RFC 3339 string in the timestamp column.
type ActivityEntry struct {
	Username  string    `json:"username"  db:"username"`
	Activity  string    `json:"activity"  db:"activity"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
