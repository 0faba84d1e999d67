package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when the unique email constraint rejects a write.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserRepository defines the interface for user-related database operations.
// Email arguments are expected to be normalized by the caller.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	SetVerified(ctx context.Context, id string) error
}
