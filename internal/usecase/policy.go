package usecase

import (
	"fmt"

	"timetrack/internal/domain"
)

// Authorization policy for administrative operations. Pure functions over
// roles; every admin handler consults these before touching the store.

// ViewScope returns the role filter a caller is allowed to list users with:
// nil means all users (superadmin), a non-nil role restricts the listing
// (admin sees only plain users). Plain users may not list at all.
func ViewScope(caller domain.Role) (*domain.Role, error) {
	switch caller {
	case domain.RoleSuperadmin:
		return nil, nil
	case domain.RoleAdmin:
		r := domain.RoleUser
		return &r, nil
	default:
		return nil, fmt.Errorf("role %q may not list users: %w", caller, domain.ErrForbidden)
	}
}

// CanAdminister decides whether caller may delete, change the role of, or
// reset credentials for a target with the given role. Superadmins are
// untouchable through this path, admins are only reachable by superadmins,
// and plain users hold no administrative power at all.
func CanAdminister(caller, target domain.Role) error {
	switch {
	case caller != domain.RoleAdmin && caller != domain.RoleSuperadmin:
		return fmt.Errorf("role %q has no administrative rights: %w", caller, domain.ErrForbidden)
	case target == domain.RoleSuperadmin:
		return fmt.Errorf("superadmin accounts cannot be modified: %w", domain.ErrForbidden)
	case target == domain.RoleAdmin && caller != domain.RoleSuperadmin:
		return fmt.Errorf("only superadmin may act on admin accounts: %w", domain.ErrForbidden)
	}
	return nil
}

// AllowedRole validates the role a caller wants to assign. Superadmins may
// assign any of the three roles; admins may only (re)assign "user". The
// check is independent of who the target is.
func AllowedRole(caller domain.Role, newRole domain.Role) error {
	if !newRole.Valid() {
		return fmt.Errorf("unknown role %q: %w", newRole, domain.ErrValidation)
	}
	switch caller {
	case domain.RoleSuperadmin:
		return nil
	case domain.RoleAdmin:
		if newRole == domain.RoleUser {
			return nil
		}
		return fmt.Errorf("admin may not assign role %q: %w", newRole, domain.ErrValidation)
	default:
		return fmt.Errorf("role %q may not assign roles: %w", caller, domain.ErrForbidden)
	}
}
