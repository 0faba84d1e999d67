package helpers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// TokenBytes is the entropy of every opaque token handed out (session, reset, verify).
const TokenBytes = 32

// RandomToken returns n random bytes hex encoded.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken is the lookup key stored in place of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SleepUntil waits until deadline or until ctx is done.
func SleepUntil(ctx context.Context, deadline time.Time) {
	d := time.Until(deadline)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// SleepJitter waits a random duration in [min, max) or until ctx is done.
func SleepJitter(ctx context.Context, min, max time.Duration) {
	if max <= min {
		return
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return
	}
	span := uint64(max - min)
	d := min + time.Duration(binary.LittleEndian.Uint64(b[:])%span)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
