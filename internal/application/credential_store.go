package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
)

// BusinessInfo holds the fields only business accounts carry.
type BusinessInfo struct {
	Name    string
	Website string
	Phone   string
}

type NewUser struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           entity.Role
	MarketingOptIn bool
	Business       *BusinessInfo
}

// CredentialStore owns user identities and their password hashes.
type CredentialStore struct {
	Repo   repo.UserRepository
	Hasher helpers.PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialStore(r repo.UserRepository, h helpers.PasswordHasher) *CredentialStore {
	return &CredentialStore{Repo: r, Hasher: h}
}

// Create hashes the password and inserts the user. Uniqueness is left to the
// database so concurrent registrations resolve to exactly one winner.
func (s *CredentialStore) Create(ctx context.Context, in NewUser) (*entity.User, error) {
	role := in.Role
	if role == "" {
		role = entity.RoleCustomer
	}
	if !role.Valid() {
		return nil, fieldError("role", fmt.Sprintf("%q is not a valid choice.", string(role)))
	}
	u := &entity.User{
		Email:          entity.NormalizeEmail(in.Email),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           role,
		MarketingOptIn: in.MarketingOptIn,
		IsActive:       true,
	}
	if role == entity.RoleBusiness {
		if in.Business == nil || strings.TrimSpace(in.Business.Name) == "" {
			return nil, fieldError(NonFieldErrors, MsgBusinessNameRequired)
		}
		u.BusinessName = strings.TrimSpace(in.Business.Name)
		u.Website = strings.TrimSpace(in.Business.Website)
		u.Phone = strings.TrimSpace(in.Business.Phone)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// FindByEmail looks the address up case-insensitively. A missing user is (nil, nil).
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, entity.NormalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// GetByID returns repo.ErrNotFound when the user does not exist.
func (s *CredentialStore) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return s.Repo.GetByID(ctx, id)
}

// VerifyPassword compares plain against u's hash. For a nil user a dummy
// comparison still runs so both outcomes cost the same.
func (s *CredentialStore) VerifyPassword(u *entity.User, plain string) bool {
	if u == nil || u.PasswordHash == "" {
		s.Hasher.Verify(s.dummy(), plain)
		return false
	}
	return s.Hasher.Verify(u.PasswordHash, plain)
}

// HashPassword hashes plain with the configured strategy for callers that
// persist it themselves.
func (s *CredentialStore) HashPassword(plain string) (string, error) {
	hash, err := s.Hasher.Hash(plain)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *CredentialStore) SetVerified(ctx context.Context, userID string) error {
	return s.Repo.SetVerified(ctx, userID)
}

func (s *CredentialStore) Update(ctx context.Context, u *entity.User) error {
	return s.Repo.Update(ctx, u)
}

func (s *CredentialStore) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("not-a-real-password-used-for-timing")
	})
	return s.dummyHash
}
