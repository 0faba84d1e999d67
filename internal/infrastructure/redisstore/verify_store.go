package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
)

const verifyPrefix = "auth:verify:"

type verifyEntry struct {
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
}

// VerifyStore keeps email verification tokens keyed by their hash.
type VerifyStore struct {
	rdb redis.Cmdable
}

func NewVerifyStore(rdb redis.Cmdable) *VerifyStore {
	return &VerifyStore{rdb: rdb}
}

func (s *VerifyStore) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	return helpers.RedisSetJSON(ctx, s.rdb, verifyPrefix+helpers.HashToken(token),
		verifyEntry{UserID: userID, CreatedAt: time.Now().Unix()}, ttl)
}

// Take is single-use: GETDEL guarantees only one caller sees the entry.
func (s *VerifyStore) Take(ctx context.Context, token string) (string, error) {
	var e verifyEntry
	ok, err := helpers.RedisGetDelJSON(ctx, s.rdb, verifyPrefix+helpers.HashToken(token), &e)
	if err != nil || !ok {
		return "", err
	}
	return e.UserID, nil
}
