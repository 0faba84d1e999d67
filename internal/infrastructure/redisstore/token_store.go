// Package redisstore keeps short-lived auth state in Redis: session tokens,
// refresh revocations and verification tokens.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
)

const (
	userTokenPrefix = "auth:user:token:" // hash {token, hash, created_at}
	tokenPrefix     = "auth:token:"      // sha256(token) -> user id
)

func userTokenKey(userID string) string { return userTokenPrefix + userID }
func tokenKey(hash string) string       { return tokenPrefix + hash }

// KEYS[1] user key, KEYS[2] token key
// ARGV token, hash, uid, ttl ms, created_at ms
var getOrCreateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  local v = redis.call("HMGET", KEYS[1], "token", "created_at")
  return {0, v[1], v[2], redis.call("PTTL", KEYS[1])}
end
redis.call("HSET", KEYS[1], "token", ARGV[1], "hash", ARGV[2], "created_at", ARGV[5])
redis.call("PEXPIRE", KEYS[1], ARGV[4])
redis.call("SET", KEYS[2], ARGV[3], "PX", ARGV[4])
return {1, ARGV[1], ARGV[5], tonumber(ARGV[4])}
`)

// KEYS[1] token key; ARGV user prefix, ttl ms, hash
var touchScript = redis.NewScript(`
local uid = redis.call("GET", KEYS[1])
if not uid then return false end
local ukey = ARGV[1] .. uid
if redis.call("HGET", ukey, "hash") ~= ARGV[3] then return false end
redis.call("PEXPIRE", KEYS[1], ARGV[2])
redis.call("PEXPIRE", ukey, ARGV[2])
local v = redis.call("HMGET", ukey, "token", "created_at")
return {uid, v[1], v[2]}
`)

// KEYS[1] token key; ARGV user prefix, hash
var revokeScript = redis.NewScript(`
local uid = redis.call("GET", KEYS[1])
if not uid then return 0 end
redis.call("DEL", KEYS[1])
local ukey = ARGV[1] .. uid
if redis.call("HGET", ukey, "hash") == ARGV[2] then
  redis.call("DEL", ukey)
end
return 1
`)

// KEYS[1] user key; ARGV token prefix
var revokeAllScript = redis.NewScript(`
local h = redis.call("HGET", KEYS[1], "hash")
if h then
  redis.call("DEL", ARGV[1] .. h)
end
return redis.call("DEL", KEYS[1])
`)

// TokenStore keeps one opaque session token per user. Every multi-key change
// runs as a single Lua script.
type TokenStore struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewTokenStore(rdb redis.Cmdable) *TokenStore {
	return &TokenStore{rdb: rdb, now: time.Now}
}

func (s *TokenStore) GetOrCreate(ctx context.Context, userID, candidate string, ttl time.Duration) (entity.SessionToken, bool, error) {
	now := s.now()
	hash := helpers.HashToken(candidate)
	res, err := getOrCreateScript.Run(ctx, s.rdb,
		[]string{userTokenKey(userID), tokenKey(hash)},
		candidate, hash, userID, ttl.Milliseconds(), now.UnixMilli(),
	).Slice()
	if err != nil {
		return entity.SessionToken{}, false, err
	}
	if len(res) != 4 {
		return entity.SessionToken{}, false, fmt.Errorf("unexpected script reply: %v", res)
	}
	created := toInt64(res[0]) == 1
	tok := entity.SessionToken{
		Value:     toString(res[1]),
		UserID:    userID,
		CreatedAt: time.UnixMilli(toInt64(res[2])),
	}
	if pttl := toInt64(res[3]); pttl > 0 {
		tok.ExpiresAt = now.Add(time.Duration(pttl) * time.Millisecond)
	}
	return tok, created, nil
}

func (s *TokenStore) Lookup(ctx context.Context, token string) (string, error) {
	uid, err := s.rdb.Get(ctx, tokenKey(helpers.HashToken(token))).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return uid, err
}

// Touch returns a zero token when token is no longer live.
func (s *TokenStore) Touch(ctx context.Context, token string, ttl time.Duration) (entity.SessionToken, error) {
	hash := helpers.HashToken(token)
	res, err := touchScript.Run(ctx, s.rdb, []string{tokenKey(hash)},
		userTokenPrefix, ttl.Milliseconds(), hash,
	).Slice()
	if errors.Is(err, redis.Nil) {
		return entity.SessionToken{}, nil
	}
	if err != nil {
		return entity.SessionToken{}, err
	}
	if len(res) != 3 {
		return entity.SessionToken{}, fmt.Errorf("unexpected script reply: %v", res)
	}
	return entity.SessionToken{
		UserID:    toString(res[0]),
		Value:     toString(res[1]),
		CreatedAt: time.UnixMilli(toInt64(res[2])),
		ExpiresAt: s.now().Add(ttl),
	}, nil
}

func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	hash := helpers.HashToken(token)
	return revokeScript.Run(ctx, s.rdb, []string{tokenKey(hash)}, userTokenPrefix, hash).Err()
}

func (s *TokenStore) RevokeAll(ctx context.Context, userID string) error {
	return revokeAllScript.Run(ctx, s.rdb, []string{userTokenKey(userID)}, tokenPrefix).Err()
}

func toInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case string:
		i, _ := strconv.ParseInt(x, 10, 64)
		return i
	}
	return 0
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}
