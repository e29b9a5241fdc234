package enums

import "fmt"

// StaffRole grants access to the admin API.
type StaffRole string

const (
	StaffRoleAdmin            StaffRole = "admin"
	StaffRoleInventoryManager StaffRole = "inventory_manager"
	StaffRoleSupport          StaffRole = "support"
)

var validStaffRoles = []StaffRole{
	StaffRoleAdmin,
	StaffRoleInventoryManager,
	StaffRoleSupport,
}

func (r StaffRole) String() string {
	return string(r)
}

func (r StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStaffRole converts raw input into a StaffRole.
func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
