package entity

import "time"

// SessionToken is the opaque bearer credential handed to clients.
// A user has at most one active token at a time.
type SessionToken struct {
	Value     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t SessionToken) IsExpiredAt(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
