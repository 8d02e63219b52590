package domain

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Principal is the authenticated identity supplied with every mutating call.
// The registry never authenticates by itself; the session gate resolves the
// principal before the call reaches the core.
type Principal struct {
	Name string
	Role Role
}

type APIKey struct {
	TokenHash string
	Principal string
	Role      Role
	Active    bool
	CreatedAt time.Time
}
