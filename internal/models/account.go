package models

import "time"

// Role tags an authenticating account with the record collection it was
// resolved from. An account holds at most one role at a time.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleMentor     Role = "MENTOR"
	RoleStudent    Role = "STUDENT"
	RoleUnassigned Role = "UNASSIGNED"
)

// Valid reports whether the role is one of the linkable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMentor, RoleStudent:
		return true
	}
	return false
}

// Account is an authenticating identity stored in the record store. The
// role reference is the single source of truth other components read to
// authorize actions.
type Account struct {
	ID             int        `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"`
	LinkedEntityID *int       `json:"linked_entity_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Linked reports whether the account already carries a resolved role.
func (a *Account) Linked() bool {
	return a != nil && a.Role.Valid() && a.LinkedEntityID != nil
}

// Resolution is the outcome of identity resolution: the role-tagged
// collection that matched and the matched entity.
type Resolution struct {
	Role     Role   `json:"role"`
	EntityID int    `json:"entity_id"`
	Name     string `json:"name"`
	Variant  string `json:"variant"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
