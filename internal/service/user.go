// Package service contains the business logic layer: it validates input,
// enforces the domain rules, and orchestrates the persistence gateway and
// the activity log. Handlers above it speak HTTP; the gateway below it
// speaks SQL. Nothing in this package knows about either.
//
// THE SNAPSHOT WORKFLOW:
// Every mutation follows the same shape — load the full table snapshot,
// mutate it in memory, replace the table, then record an activity entry.
// Validation and duplicate failures happen before the replace, so failed
// calls never mutate anything.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ngvan/tunebox/internal/apperror"
	"github.com/ngvan/tunebox/internal/auth"
	"github.com/ngvan/tunebox/internal/model"
	"github.com/ngvan/tunebox/internal/store"
)

// UserService is the credential store plus profile management.
type UserService struct {
	gateway   store.Gateway
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	activity  Recorder
	logger    *slog.Logger
}

// NewUserService creates a UserService with all dependencies injected.
func NewUserService(
	gateway store.Gateway,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	activity Recorder,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		gateway:   gateway,
		passwords: passwords,
		tokens:    tokens,
		activity:  activity,
		logger:    logger,
	}
}

// Register creates a new account. Usernames are matched case-sensitively and
// must be unique; the stored credential is a bcrypt hash, never the
// plaintext. Success is logged as "Registered".
func (s *UserService) Register(ctx context.Context, fullName, email, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}

	users, err := s.gateway.LoadUsers(ctx)
	if err != nil {
		return apperror.Storage("load users", err)
	}

	for _, u := range users {
		if u.Username == username {
			return apperror.Duplicate("user", username)
		}
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("registering %s: %w", username, err)
	}

	users = append(users, model.User{
		FullName:     strings.TrimSpace(fullName),
		Email:        strings.TrimSpace(email),
		Username:     username,
		PasswordHash: hash,
	})

	if err := s.gateway.ReplaceUsers(ctx, users); err != nil {
		return apperror.Storage("replace users", err)
	}

	if err := s.activity.Record(ctx, username, "Registered"); err != nil {
		// The account exists; a lost log entry is the documented
		// cross-table inconsistency window, not a failed registration.
		s.logger.Warn("activity record failed after register",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("user registered", slog.String("username", username))
	return nil
}

// Login verifies the credentials and issues a session token. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
// Success is logged as "Logged in".
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	users, err := s.gateway.LoadUsers(ctx)
	if err != nil {
		return nil, "", apperror.Storage("load users", err)
	}

	var found *model.User
	for i := range users {
		if users[i].Username == username {
			found = &users[i]
			break
		}
	}
	if found == nil {
		// Burn a comparison so this branch costs the same as a wrong
		// password; the error message alone is not opaque if timing talks.
		s.passwords.VerifyDummy(password)
		return nil, "", apperror.InvalidCredentials()
	}

	if err := s.passwords.Verify(found.PasswordHash, password); err != nil {
		return nil, "", apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(username)
	if err != nil {
		return nil, "", fmt.Errorf("logging in %s: %w", username, err)
	}

	if err := s.activity.Record(ctx, username, "Logged in"); err != nil {
		s.logger.Warn("activity record failed after login",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("user logged in", slog.String("username", username))

	user := *found
	return &user, token, nil
}

// Logout records the logout event. The session itself is client-side state
// (the cookie); there is nothing server-side to invalidate.
func (s *UserService) Logout(ctx context.Context, username string) error {
	if err := s.activity.Record(ctx, username, "Logged out"); err != nil {
		return err
	}
	s.logger.Info("user logged out", slog.String("username", username))
	return nil
}

// Get returns one user's profile.
func (s *UserService) Get(ctx context.Context, username string) (*model.User, error) {
	users, err := s.gateway.LoadUsers(ctx)
	if err != nil {
		return nil, apperror.Storage("load users", err)
	}
	for i := range users {
		if users[i].Username == username {
			user := users[i]
			return &user, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

// UpdateProfile rewrites the user's full name and email.
// Logged as "Updated profile".
func (s *UserService) UpdateProfile(ctx context.Context, username, fullName, email string) error {
	return s.mutateUser(ctx, username, "Updated profile", func(u *model.User) {
		u.FullName = strings.TrimSpace(fullName)
		u.Email = strings.TrimSpace(email)
	})
}

// SetAvatar records the stored avatar filename on the user.
// Logged as "Updated avatar".
func (s *UserService) SetAvatar(ctx context.Context, username, avatarRef string) error {
	return s.mutateUser(ctx, username, "Updated avatar", func(u *model.User) {
		u.AvatarRef = avatarRef
	})
}

// mutateUser is the shared load-mutate-replace-record path for profile
// updates.
func (s *UserService) mutateUser(ctx context.Context, username, activity string, mutate func(*model.User)) error {
	users, err := s.gateway.LoadUsers(ctx)
	if err != nil {
		return apperror.Storage("load users", err)
	}

	idx := -1
	for i := range users {
		if users[i].Username == username {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperror.NotFound("user", username)
	}

	mutate(&users[idx])

	if err := s.gateway.ReplaceUsers(ctx, users); err != nil {
		return apperror.Storage("replace users", err)
	}

	if err := s.activity.Record(ctx, username, activity); err != nil {
		s.logger.Warn("activity record failed after profile update",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}

	return nil
}
