// Package auth provides the credential primitives: bcrypt password hashing
// and JWT session tokens.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, generates a random salt per hash, and embeds
// the salt in its output — one TEXT column stores everything needed to
// verify. Two users with the same password get different hashes, and the
// stored value is never the plaintext.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern server — negligible for a login, brutal for a brute-forcer.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It is a struct rather than free functions so the cost can be injected:
// tests use the bcrypt minimum (cost 4) to avoid the ~250ms per hash.
type PasswordService struct {
	cost      int
	dummyHash []byte
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(defaultCost)
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Intended for tests; do not lower the cost in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	// The dummy hash uses the same cost as real hashes so VerifyDummy
	// takes the same time as a real comparison.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("tunebox-timing-dummy"), cost)
	return &PasswordService{cost: cost, dummyHash: dummy}
}

// Hash hashes the given plaintext password with bcrypt. The output is a
// self-contained string (version, cost, salt, digest) safe to store directly.
//
// bcrypt silently truncates inputs beyond 72 bytes; we reject them instead
// so callers are not surprised.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// VerifyDummy burns a full bcrypt comparison against a fixed hash and
// discards the result. Login calls it on the unknown-username branch so
// that branch takes the same time as a wrong-password comparison — without
// it, response timing would reveal which usernames exist.
func (p *PasswordService) VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(plaintext))
}

// Verify checks a plaintext password against a stored bcrypt hash.
// Returns nil on match. The comparison is constant-time inside bcrypt.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
