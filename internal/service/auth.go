package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

// errBadCredentials is the only login failure a client ever sees, whether
// the username or the password was wrong.
var errBadCredentials = apperror.Unauthorized("invalid username or password")

// AuthService handles login, logout and the admin bootstrap.
//
//	AuthHandler (HTTP) → AuthService → UserRepository, SessionRepository (DB)
//	                                 ↘ TokenService (signed cookie value)
//
// A login creates a row in sessions and hands back a token that wraps the
// session id. Logging out deletes the row, which revokes the token even
// though its signature is still valid.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		passwords: passwords,
		ttl:       ttl,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AuthResult bundles the user and the cookie token so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Login checks the credentials and opens a new session.
//
// A missing user still costs one hash comparison so that response time does
// not reveal which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errBadCredentials
	}

	s.PurgeExpiredSessions(ctx)

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		s.passwords.VerifyDummy(password)
		s.logger.Info("login rejected", slog.String("username", username))
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected", slog.String("username", username))
		return nil, errBadCredentials
	}
	if auth.IsLegacy(user.PasswordHash) {
		s.logger.Warn("user still has a legacy scrypt password hash", slog.String("userID", user.ID))
	}

	now := s.now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("service/auth: creating session: %w", err)
	}

	token, err := s.tokens.Generate(session.ID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// Logout deletes the session. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("service/auth: deleting session: %w", err)
	}
	s.logger.Info("user logged out")
	return nil
}

// PurgeExpiredSessions removes dead sessions. Failures are logged, not
// returned: a login must not fail because housekeeping did.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) {
	n, err := s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		s.logger.Error("purging expired sessions", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", slog.Int64("count", n))
	}
}

// EnsureAdmin creates the user when the username is not taken yet. It
// reports whether a user was created. An existing user's password is left
// alone.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	v := apperror.NewValidator()
	v.Require("username", username)
	v.Check(password != "", "password", "password is required")
	if err := v.Err(); err != nil {
		return false, err
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return false, fmt.Errorf("service/auth: looking up admin: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return false, apperror.ValidationFailed("password", err.Error())
	}
	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("service/auth: creating admin: %w", err)
	}

	s.logger.Info("admin user created", slog.String("userID", user.ID), slog.String("username", username))
	return true, nil
}
