package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for user domain
// Passwords are stored as hashes in PasswordHash, produced by the configured hasher.
//
// BusinessName, Website and Phone are only meaningful when Role is RoleBusiness.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Role           Role
	EmailVerified  bool
	MarketingOptIn bool
	BusinessName   string
	Website        string
	Phone          string
	AvatarURL      string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsBusiness() bool { return u.Role == RoleBusiness }

// NormalizeEmail lower-cases and trims an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
