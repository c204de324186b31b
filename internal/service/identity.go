// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → loads/replaces whole collections
//
// Services accept primitives and return domain models and apperror values;
// they know nothing about HTTP. Every mutating method follows the same
// read-modify-write cycle: Load the full collection, change it in memory,
// Replace it. There is no locking between concurrent cycles — see the
// repository tests for the documented lost-update race.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
	"github.com/mkowalczyk/dsn-service/internal/auth"
	"github.com/mkowalczyk/dsn-service/internal/model"
	"github.com/mkowalczyk/dsn-service/internal/repository"
)

// emailPattern is the original's deliberately loose check: something, an @,
// something, a dot, something. Real validation happens when mail bounces.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLen = 6

// IdentityService resolves credentials from any of the four channels
// (password, Google ID token, Microsoft Graph token, GitHub OAuth code) to
// exactly one user record.
//
// The providers in internal/auth verify the credential and produce an
// auth.Identity; this service only decides which record that identity maps
// to. Local registration/login work on the same collection, so a password
// account and a social account with the same verified email are the same
// user.
type IdentityService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger

	// now is injectable so tests get deterministic IDs.
	now func() time.Time
}

// NewIdentityService creates an IdentityService with all required dependencies.
func NewIdentityService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		users:     users,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterLocal creates a password-backed account.
//
// Validation: all three fields required, email must look like an email,
// password at least 6 characters. Conflicts: username taken, or email
// already present on any account (case-insensitive — "A@x.com" and
// "a@x.com" are the same mailbox).
func (s *IdentityService) RegisterLocal(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return nil, apperror.ValidationFailed("username", "username, email and password required")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperror.ValidationFailed("email", "invalid email")
	}
	if len(password) < minPasswordLen {
		return nil, apperror.ValidationFailed("password", fmt.Sprintf("password too short (min %d)", minPasswordLen))
	}

	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/identity: loading users: %w", err)
	}

	for _, u := range users {
		if u.Username == username {
			return nil, apperror.Conflict("user", username)
		}
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return nil, apperror.Conflict("user", email)
		}
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/identity: hashing password: %w", err)
	}

	user := model.User{
		ID:           s.now().UnixMilli(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	users = append(users, user)

	if err := s.users.Replace(ctx, users); err != nil {
		return nil, fmt.Errorf("service/identity: saving users: %w", err)
	}

	s.logger.Info("user registered", slog.String("username", username))
	return &user, nil
}

// LoginLocal authenticates a password account. The identifier is tried as a
// username first, then as a case-insensitive email. Both "no such account"
// and "wrong password" come back as AuthError — the caller learns nothing
// about which half failed beyond the message the original exposed.
func (s *IdentityService) LoginLocal(ctx context.Context, username, email, password string) (*model.User, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/identity: loading users: %w", err)
	}

	var user *model.User
	if username != "" {
		user = findByUsername(users, username)
	}
	if user == nil && email != "" {
		for i := range users {
			if users[i].Email != "" && strings.EqualFold(users[i].Email, email) {
				user = &users[i]
				break
			}
		}
	}

	if user == nil {
		return nil, apperror.Auth("invalid username or email")
	}
	if !user.HasPassword() {
		return nil, apperror.Auth("account has no local password (use social login)")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Auth("invalid credentials")
	}

	return user, nil
}

// LoginSocial upserts the user record for a provider-verified identity and
// is the single convergence point for all three social channels.
//
// Create: a fresh record with an empty password hash (social-only account).
// Refresh: only blank profile fields are filled in — one provider's sparse
// data must never erase richer data from another — and the provenance flag
// for the channel is set.
func (s *IdentityService) LoginSocial(ctx context.Context, identity *auth.Identity) (*model.User, error) {
	if identity == nil || identity.Username == "" {
		return nil, apperror.Auth("provider returned no identity")
	}

	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/identity: loading users: %w", err)
	}

	user := findByUsername(users, identity.Username)
	if user == nil {
		users = append(users, model.User{
			ID:          s.now().UnixMilli(),
			Username:    identity.Username,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			Picture:     identity.Picture,
		})
		user = &users[len(users)-1]
	} else {
		if user.DisplayName == "" {
			user.DisplayName = identity.DisplayName
		}
		if user.Email == "" {
			user.Email = identity.Email
		}
		if user.Picture == "" {
			user.Picture = identity.Picture
		}
	}

	switch identity.Provider {
	case auth.ProviderGoogle:
		user.Google = true
	case auth.ProviderMicrosoft:
		user.Microsoft = true
	case auth.ProviderGitHub:
		user.GitHub = true
	}

	if err := s.users.Replace(ctx, users); err != nil {
		return nil, fmt.Errorf("service/identity: saving users: %w", err)
	}

	s.logger.Info("user authenticated",
		slog.String("username", user.Username),
		slog.String("provider", string(identity.Provider)),
	)

	result := *user
	return &result, nil
}

// Get returns the user record for a username, or NotFoundError.
func (s *IdentityService) Get(ctx context.Context, username string) (*model.User, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/identity: loading users: %w", err)
	}

	user := findByUsername(users, username)
	if user == nil {
		return nil, apperror.NotFound("user", username)
	}

	result := *user
	return &result, nil
}

// ListPublic returns the directory entries for every account — just the
// fields the messaging UI needs to pick a recipient.
func (s *IdentityService) ListPublic(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/identity: loading users: %w", err)
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func findByUsername(users []model.User, username string) *model.User {
	for i := range users {
		if users[i].Username == username {
			return &users[i]
		}
	}
	return nil
}
