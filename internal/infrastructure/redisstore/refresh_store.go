package redisstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	refreshRevokedPrefix = "auth:refresh:revoked:" // jti -> 1 until the token would expire
	refreshBeforePrefix  = "auth:refresh:before:"  // user id -> unix nanos watermark
)

// RefreshStore is the refresh JWT revocation list.
type RefreshStore struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRefreshStore(rdb redis.Cmdable) *RefreshStore {
	return &RefreshStore{rdb: rdb, now: time.Now}
}

// Revoke keeps jti on the list until the token would have expired anyway.
func (s *RefreshStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(s.now())
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, refreshRevokedPrefix+jti, 1, ttl).Err()
}

func (s *RefreshStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, refreshRevokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RefreshStore) SetRevokedBefore(ctx context.Context, userID string, t time.Time, ttl time.Duration) error {
	return s.rdb.Set(ctx, refreshBeforePrefix+userID, strconv.FormatInt(t.UnixNano(), 10), ttl).Err()
}

// RevokedBefore returns the zero time when no watermark is set.
func (s *RefreshStore) RevokedBefore(ctx context.Context, userID string) (time.Time, error) {
	v, err := s.rdb.Get(ctx, refreshBeforePrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n), nil
}
