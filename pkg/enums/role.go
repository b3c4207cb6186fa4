package enums

import "fmt"

// Role is the immutable account type chosen at registration.
type Role string

const (
	RoleVendor   Role = "Vendor"
	RoleSupplier Role = "Supplier"
)

var validRoles = []Role{
	RoleVendor,
	RoleSupplier,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Counterparty returns the role on the other side of an order.
func (r Role) Counterparty() Role {
	switch r {
	case RoleVendor:
		return RoleSupplier
	case RoleSupplier:
		return RoleVendor
	}
	return ""
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
