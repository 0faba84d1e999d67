package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
)

// PasswordResetRepository manages password reset persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, r *entity.PasswordReset) error

	// GetActive returns the unconsumed, unexpired reset with tokenHash without consuming it.
	GetActive(ctx context.Context, tokenHash string) (*entity.PasswordReset, error)

	// Redeem marks the unconsumed, unexpired reset with tokenHash as used and
	// stores passwordHash on its owner, both or neither. Of concurrent callers
	// only one succeeds; the rest get ErrNotFound.
	Redeem(ctx context.Context, tokenHash, passwordHash string) (*entity.PasswordReset, error)

	// DeleteByUser removes every reset request of a user.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteExpired removes expired or consumed requests and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
