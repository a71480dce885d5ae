package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"timetrack/internal/domain"
	"timetrack/internal/ports"
)

// Service handles login and self-service credential changes.
type Service struct {
	Log    *slog.Logger
	Store  ports.Store
	Hasher ports.PasswordHasher
	Tokens *TokenManager
}

// Login verifies the credentials and mints a bearer token. Bad username and
// bad password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	invalid := fmt.Errorf("invalid credentials: %w", domain.ErrForbidden)

	u, err := s.Store.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, invalid
	}
	if err != nil {
		return "", nil, fmt.Errorf("login lookup: %w", err)
	}
	ok, err := s.Hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("login verify: %w", err)
	}
	if !ok {
		return "", nil, invalid
	}
	token, err := s.Tokens.Mint(u)
	if err != nil {
		return "", nil, fmt.Errorf("mint token: %w", err)
	}
	s.Log.Info("user logged in", slog.String("user_id", u.ID), slog.String("role", string(u.Role)))
	return token, u, nil
}

// ChangePassword replaces the caller's own digest after verifying the
// current password, clearing any force-change flag.
func (s *Service) ChangePassword(ctx context.Context, callerID, current, next string) error {
	if next == "" {
		return fmt.Errorf("new password is required: %w", domain.ErrValidation)
	}
	u, err := s.Store.GetUser(ctx, callerID)
	if err != nil {
		return err
	}
	ok, err := s.Hasher.Verify(current, u.PasswordHash)
	if err != nil || !ok {
		return fmt.Errorf("current password does not match: %w", domain.ErrForbidden)
	}
	digest, err := s.Hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.UpdateUserPassword(ctx, callerID, digest, false); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	s.Log.Info("password changed", slog.String("user_id", callerID))
	return nil
}

// Bootstrap seeds the first superadmin when the user table is empty. A
// no-op when accounts already exist or the credentials are unset.
func (s *Service) Bootstrap(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	n, err := s.Store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if n > 0 {
		return nil
	}
	digest, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("bootstrap: hash password: %w", err)
	}
	u := domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		FullName:     username,
		PasswordHash: digest,
		Role:         domain.RoleSuperadmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.InsertUser(ctx, u); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	s.Log.Info("bootstrap superadmin created", slog.String("username", username))
	return nil
}
