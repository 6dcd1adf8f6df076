package domain

// Role is an application role held by an authenticated user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// IsValidRole checks if a Role is valid
func IsValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleEditor:
		return true
	}
	return false
}
