// Package model defines domain entities for the application.
package model

import "time"

// User roles.
const (
	RoleReader = "reader"
	RoleAdmin  = "admin"
)

// User is a library patron. Violations counts late returns and never decreases
// except through an explicit admin reset.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Violations   int       `json:"violations"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasPassword reports whether the user can authenticate with Basic credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Scopes returns the scopes granted to a user authenticated by password.
func (u *User) Scopes() []string {
	if u.Role == RoleAdmin {
		return []string{ScopeAdmin}
	}
	return []string{ScopeRead, ScopeWrite}
}
