package enums

import "fmt"

// UserRole gates the admin-facing endpoints.
type UserRole string

const (
	UserRoleConsumer UserRole = "consumer"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleConsumer,
	UserRoleAdmin,
}

func (u UserRole) String() string {
	return string(u)
}

func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
