package entity

import "github.com/pollcraft/backend/pkg/enum"

type GlobalRole string

var (
	RoleSuperAdmin = enum.New(GlobalRole("super_admin"))
	RoleAdmin      = enum.New(GlobalRole("admin"))
	RoleUser       = enum.New(GlobalRole("user"))
)

var GlobalAdminRoles = []GlobalRole{RoleSuperAdmin, RoleAdmin}

type User struct {
	Base

	Name string `gorm:"unique"`
	Role GlobalRole

	// Points is the cached balance of the user's ledger. It is mutated
	// only by LedgerRepository, always together with a transaction row.
	Points uint64
}
