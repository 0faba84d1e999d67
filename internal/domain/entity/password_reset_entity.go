package entity

import "time"

// PasswordReset is a single-use reset request. Only the hash of the emailed token is kept.
type PasswordReset struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

func (r *PasswordReset) IsExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

func (r *PasswordReset) IsConsumed() bool {
	return r.ConsumedAt != nil
}
