package domain

import "time"

// DefaultRole is granted to users without an explicit role.
const DefaultRole = "USER"

// User is the directory record consulted at login.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Roles returns the user's role set.
func (u *User) Roles() []string {
	if u.Role == "" {
		return []string{DefaultRole}
	}
	return []string{u.Role}
}
