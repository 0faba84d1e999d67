package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
	"github.com/oksasatya/go-ddd-auth-service/pkg/metrics"
)

// TokenIssuer hands out opaque session tokens and maps them back to users.
type TokenIssuer struct {
	Store  TokenStore
	Users  repo.UserRepository
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewTokenIssuer(store TokenStore, users repo.UserRepository, ttl time.Duration, logger *logrus.Logger) *TokenIssuer {
	return &TokenIssuer{Store: store, Users: users, TTL: ttl, Logger: logger}
}

// IssueOrGet returns the user's live token, creating one if none exists.
func (t *TokenIssuer) IssueOrGet(ctx context.Context, u *entity.User) (entity.SessionToken, bool, error) {
	candidate, err := helpers.RandomToken(helpers.TokenBytes)
	if err != nil {
		return entity.SessionToken{}, false, fmt.Errorf("generate token: %w", err)
	}
	tok, created, err := t.Store.GetOrCreate(ctx, u.ID, candidate, t.TTL)
	if err != nil {
		return entity.SessionToken{}, false, fmt.Errorf("store token: %w", err)
	}
	if created {
		metrics.SessionTokens.WithLabelValues("created").Inc()
	} else {
		metrics.SessionTokens.WithLabelValues("reused").Inc()
	}
	return tok, created, nil
}

// Resolve returns the active owner of token or ErrInvalidToken.
func (t *TokenIssuer) Resolve(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	uid, err := t.Store.Lookup(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if uid == "" {
		return nil, ErrInvalidToken
	}
	u, err := t.Users.GetByID(ctx, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load token owner: %w", err)
	}
	if !u.IsActive {
		return nil, ErrInvalidToken
	}
	return u, nil
}

// Touch slides the expiry of a live token forward by TTL.
func (t *TokenIssuer) Touch(ctx context.Context, token string) (entity.SessionToken, error) {
	tok, err := t.Store.Touch(ctx, token, t.TTL)
	if err != nil {
		return entity.SessionToken{}, err
	}
	if tok.Value == "" {
		return entity.SessionToken{}, ErrInvalidToken
	}
	return tok, nil
}

func (t *TokenIssuer) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	metrics.SessionTokens.WithLabelValues("revoked").Inc()
	return t.Store.Revoke(ctx, token)
}

func (t *TokenIssuer) RevokeAll(ctx context.Context, userID string) error {
	metrics.SessionTokens.WithLabelValues("revoked").Inc()
	return t.Store.RevokeAll(ctx, userID)
}
