package application

import (
	"context"
	"io"
	"time"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
)

// TokenStore persists opaque session tokens, at most one live token per user.
type TokenStore interface {
	// GetOrCreate stores candidate for userID unless a live token exists, in which
	// case the existing one is returned with created=false.
	GetOrCreate(ctx context.Context, userID, candidate string, ttl time.Duration) (tok entity.SessionToken, created bool, err error)
	// Lookup returns the owner of token, or "" when it is unknown or expired.
	Lookup(ctx context.Context, token string) (string, error)
	// Touch extends token's expiry to ttl from now.
	Touch(ctx context.Context, token string, ttl time.Duration) (entity.SessionToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID string) error
}

// RefreshRevocations tracks refresh JWTs that must no longer be accepted.
type RefreshRevocations interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// SetRevokedBefore rejects every refresh token of userID issued before t.
	SetRevokedBefore(ctx context.Context, userID string, t time.Time, ttl time.Duration) error
	RevokedBefore(ctx context.Context, userID string) (time.Time, error)
}

// VerificationStore keeps single-use email verification tokens.
type VerificationStore interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	// Take returns the owner and deletes the token; "" when unknown.
	Take(ctx context.Context, token string) (string, error)
}

// NotificationSink delivers a message to one recipient.
type NotificationSink interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AvatarUploader stores avatar images and returns their public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}
