package model

import (
	"fmt"
	"strings"
)

// Role controls which operations a user may perform.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an entry in the static team roster.
type User struct {
	ID          string `json:"id" mapstructure:"id" yaml:"id"`
	Username    string `json:"username" mapstructure:"username" yaml:"username"`
	DisplayName string `json:"display_name" mapstructure:"display_name" yaml:"display_name"`
	Role        Role   `json:"role" mapstructure:"role" yaml:"role"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// CanAudit reports whether the user may approve, cancel approvals, reopen
// tasks, and manage tasks and settings.
func (u User) CanAudit() bool { return u.IsAdmin() }

// DefaultUsers returns the built-in roster.
func DefaultUsers() []User {
	return []User{
		{ID: "1", Username: "admin", DisplayName: "Admin", Role: RoleAdmin},
		{ID: "2", Username: "hia", DisplayName: "HİA", Role: RoleUser},
		{ID: "3", Username: "yce", DisplayName: "YCE", Role: RoleUser},
		{ID: "4", Username: "re", DisplayName: "RE", Role: RoleUser},
		{ID: "5", Username: "kns", DisplayName: "KNS", Role: RoleUser},
		{ID: "6", Username: "yy", DisplayName: "YY", Role: RoleUser},
		{ID: "7", Username: "mg", DisplayName: "MG", Role: RoleUser},
		{ID: "8", Username: "dt", DisplayName: "DT", Role: RoleUser},
	}
}

// Directory is a read-only list of known users.
type Directory struct {
	users []User
}

// NewDirectory returns a directory over users. An empty list falls back to
// DefaultUsers.
func NewDirectory(users []User) *Directory {
	if len(users) == 0 {
		users = DefaultUsers()
	}
	return &Directory{users: append([]User(nil), users...)}
}

// Users returns every user in roster order.
func (d *Directory) Users() []User {
	return append([]User(nil), d.users...)
}

// Usernames returns every username in roster order.
func (d *Directory) Usernames() []string {
	names := make([]string, len(d.users))
	for i, u := range d.users {
		names[i] = u.Username
	}
	return names
}

// Lookup finds a user by username, ignoring case and surrounding space.
func (d *Directory) Lookup(username string) (User, error) {
	name := strings.ToLower(strings.TrimSpace(username))
	for _, u := range d.users {
		if u.Username == name {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("looking up %q: %w", username, ErrUnknownUser)
}

// RequireAdmin returns ErrForbidden unless u may perform admin operations.
func RequireAdmin(u User, op string) error {
	if !u.CanAudit() {
		return fmt.Errorf("%s by %s: %w", op, u.Username, ErrForbidden)
	}
	return nil
}
