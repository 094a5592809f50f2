// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — plain values with no behaviour
// beyond what the services layer gives them.
package model

// User represents a registered account.
//
// The username is the primary key — there is no synthetic ID. That matches
// the persisted schema, where every other table references users by username.
//
// PasswordHash holds a bcrypt hash (salt embedded), never the plaintext.
// AvatarRef is the filename of the stored avatar thumbnail, empty until the
// user uploads one.
type User struct {
	FullName     string `json:"fullName"  db:"full_name"`
	Email        string `json:"email"     db:"email"`
	Username     string `json:"username"  db:"username"`
	PasswordHash string `json:"-"         db:"password_hash"` // never serialized to clients
	AvatarRef    string `json:"avatarRef" db:"avatar_ref"`
}
