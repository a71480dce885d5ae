package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"timetrack/internal/domain"
	"timetrack/internal/ports"
)

// AdminService runs the role-gated operations over the user base. Every
// method takes the caller's identity explicitly and consults the policy
// before issuing any write.
type AdminService struct {
	Log    *slog.Logger
	Store  ports.Store
	Hasher ports.PasswordHasher
}

// ListUsers returns the accounts the caller's role is allowed to see:
// everyone for superadmin, only plain users for admin.
func (s *AdminService) ListUsers(ctx context.Context, callerRole domain.Role) ([]domain.User, error) {
	scope, err := ViewScope(callerRole)
	if err != nil {
		return nil, err
	}
	return s.Store.ListUsers(ctx, scope)
}

// DeleteUser removes the target account after the hierarchy check. Acting
// on one's own account is rejected outright.
func (s *AdminService) DeleteUser(ctx context.Context, callerID string, callerRole domain.Role, targetID string) error {
	target, err := s.authorizeTarget(ctx, callerID, callerRole, targetID)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteUser(ctx, targetID); err != nil {
		return fmt.Errorf("delete user %s: %w", targetID, err)
	}
	s.Log.Info("user deleted",
		slog.String("target_id", targetID),
		slog.String("target_role", string(target.Role)),
		slog.String("caller_id", callerID),
	)
	return nil
}

// ChangeRole assigns newRole to the target, subject to both the hierarchy
// check and the caller's role allow-list.
func (s *AdminService) ChangeRole(ctx context.Context, callerID string, callerRole domain.Role, targetID string, newRole domain.Role) error {
	if err := AllowedRole(callerRole, newRole); err != nil {
		return err
	}
	if _, err := s.authorizeTarget(ctx, callerID, callerRole, targetID); err != nil {
		return err
	}
	if err := s.Store.UpdateUserRole(ctx, targetID, newRole); err != nil {
		return fmt.Errorf("change role of user %s: %w", targetID, err)
	}
	s.Log.Info("user role changed",
		slog.String("target_id", targetID),
		slog.String("new_role", string(newRole)),
		slog.String("caller_id", callerID),
	)
	return nil
}

// ResetPassword sets a fresh digest on the target account and forces a
// password change at next login. The same hierarchy rule as DeleteUser
// applies: an admin cannot reset another admin's or a superadmin's password.
func (s *AdminService) ResetPassword(ctx context.Context, callerID string, callerRole domain.Role, targetID, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("new password is required: %w", domain.ErrValidation)
	}
	if _, err := s.authorizeTarget(ctx, callerID, callerRole, targetID); err != nil {
		return err
	}
	digest, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.UpdateUserPassword(ctx, targetID, digest, true); err != nil {
		return fmt.Errorf("reset password of user %s: %w", targetID, err)
	}
	s.Log.Info("password reset", slog.String("target_id", targetID), slog.String("caller_id", callerID))
	return nil
}

// UpdateProfile sets the caller's own full name. The target is always the
// caller; no role check applies.
func (s *AdminService) UpdateProfile(ctx context.Context, callerID, fullName string) error {
	if err := s.Store.UpdateUserFullName(ctx, callerID, fullName); err != nil {
		return fmt.Errorf("update profile of user %s: %w", callerID, err)
	}
	return nil
}

// authorizeTarget enforces the shared preconditions of the administrative
// mutations: never self, target must exist, hierarchy must permit.
func (s *AdminService) authorizeTarget(ctx context.Context, callerID string, callerRole domain.Role, targetID string) (*domain.User, error) {
	if targetID == callerID {
		return nil, fmt.Errorf("cannot act on own account: %w", domain.ErrValidation)
	}
	target, err := s.Store.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := CanAdminister(callerRole, target.Role); err != nil {
		return nil, err
	}
	return target, nil
}
