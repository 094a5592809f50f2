package sqlite

import (
	"context"

	"github.com/ngvan/tunebox/internal/model"
	"github.com/ngvan/tunebox/internal/store"
)

// compile-time check that *DB implements store.Gateway
var _ store.Gateway = (*DB)(nil)

// LoadUsers returns the full users table. A read failure degrades to an
// empty snapshot with a logged warning — the caller sees a fresh, usable
// (if amnesiac) session rather than a fatal error.
func (db *DB) LoadUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT full_name, email, username, password_hash, avatar_ref FROM users`)
	if err != nil {
		db.warnLoadFailed("users", err)
		return []model.User{}, nil
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.FullName, &u.Email, &u.Username, &u.PasswordHash, &u.AvatarRef); err != nil {
			db.warnLoadFailed("users", err)
			return []model.User{}, nil
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		db.warnLoadFailed("users", err)
		return []model.User{}, nil
	}

	return users, nil
}

// ReplaceUsers overwrites the users table with the given snapshot.
func (db *DB) ReplaceUsers(ctx context.Context, users []model.User) error {
	return db.replaceTable(ctx, "users",
		`INSERT INTO users (full_name, email, username, password_hash, avatar_ref)
		 VALUES (?, ?, ?, ?, ?)`,
		len(users),
		func(i int) []any {
			u := users[i]
			return []any{u.FullName, u.Email, u.Username, u.PasswordHash, u.AvatarRef}
		},
	)
}
