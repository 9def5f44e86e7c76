package models

import "fmt"

// Role is the closed set of admin account roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Capability names a privileged operation guarded by role checks.
type Capability string

const (
	CapViewReports     Capability = "reports:view"
	CapViewReportStats Capability = "reports:stats"
	CapManageContent   Capability = "content:manage"
	CapViewDonations   Capability = "donations:view"
	CapRefundDonation  Capability = "donations:refund"
	CapDeleteDonation  Capability = "donations:delete"
	CapViewAuditLog    Capability = "audit:view"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapViewReports:     true,
		CapViewReportStats: true,
		CapManageContent:   true,
		CapViewDonations:   true,
		CapRefundDonation:  true,
		CapDeleteDonation:  true,
		CapViewAuditLog:    true,
	},
	RoleModerator: {
		CapViewReports:     true,
		CapViewReportStats: true,
		CapManageContent:   true,
		CapViewDonations:   true,
	},
}

// ParseRole converts a stored or token-carried string into a Role.
// Unknown values are rejected rather than mapped to a default.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleCapabilities[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

// Actor identifies the authenticated admin performing a request.
type Actor struct {
	UserID   int
	Username string
	Role     Role
}
