package domain

import (
	"strings"
	"time"
)

// User mirrors the persisted representation in the accounts.users table.
// Email is the login key and is stored case-normalized.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	DateJoined   time.Time
}

// FullName joins the name components, skipping empty parts.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail lowercases and trims an email so lookups and the
// uniqueness constraint agree on a single canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
