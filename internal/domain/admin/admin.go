// Package admin holds operator identities and the capability model that
// gates sensitive routes.
package admin

import "time"

// Role is an operator role. The platform ships with two.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleSupport    Role = "support"
)

// Valid reports whether the role is one the platform knows.
func (r Role) Valid() bool {
	return r == RoleSuperadmin || r == RoleSupport
}

// Capability names a privileged operation group. Routes declare the capability
// they need instead of comparing role strings, so new roles only touch this
// table.
type Capability string

const (
	CapManageUsers      Capability = "manage_users"
	CapApproveRequests  Capability = "approve_requests"
	CapAdjustBalances   Capability = "adjust_balances"
	CapOverrideTrades   Capability = "override_trades"
	CapConfigureWallets Capability = "configure_wallets"
	CapManagePlatform   Capability = "manage_platform"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleSuperadmin: {
		CapManageUsers:      {},
		CapApproveRequests:  {},
		CapAdjustBalances:   {},
		CapOverrideTrades:   {},
		CapConfigureWallets: {},
		CapManagePlatform:   {},
	},
	RoleSupport: {
		CapManageUsers:     {},
		CapApproveRequests: {},
		CapAdjustBalances:  {},
		CapOverrideTrades:  {},
	},
}

// Can reports whether the role grants the capability.
func (r Role) Can(cap Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[cap]
	return ok
}

// Admin is one back-office operator. Rows are created out of band by the seed
// tool and never deleted by the API.
type Admin struct {
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
