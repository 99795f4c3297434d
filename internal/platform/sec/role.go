// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted access, including the admin dashboard
	RoleAdmin UserRole = "admin"

	// Lists services and sells used parts
	RoleTechnician UserRole = "technician"

	// Default role for registered customers
	RoleClient UserRole = "client"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleClient:
		return true
	default:
		return false
	}
}

// Allows reports whether a holder of r may enter an area reserved for target.
// Admins pass every guard; other roles only pass their own.
func (r UserRole) Allows(target UserRole) bool {
	return r == RoleAdmin || r == target
}

// Destination returns the landing route for a freshly signed-in role.
func (r UserRole) Destination() string {
	if r == RoleAdmin {
		return "/dashboard"
	}
	return "/"
}
