package domain

import "time"

// Role is the closed three-value privilege hierarchy:
// superadmin > admin > user.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// User is an account in the system. PasswordHash is an opaque digest
// produced by the configured hasher.
type User struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	FullName            string    `json:"full_name"`
	PasswordHash        string    `json:"-"`
	Role                Role      `json:"role"`
	ForceChangePassword bool      `json:"force_change_password"`
	CreatedAt           time.Time `json:"created_at"`
}
