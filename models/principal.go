package models

// Principal is the authenticated caller, resolved once by the auth middleware.
type Principal struct {
	ClubID int
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
