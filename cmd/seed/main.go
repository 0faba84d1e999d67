package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-ddd-auth-service/config"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
	pginfra "github.com/oksasatya/go-ddd-auth-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer pool.Close()

	hasher, err := helpers.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		log.Fatalf("password hasher: %v", err)
	}
	users := pginfra.NewUserRepository(pool)

	password := "password123"
	demo := []*entity.User{
		{
			Email:     "customer@example.com",
			FirstName: "Demo",
			LastName:  "Customer",
			Role:      entity.RoleCustomer,
			IsActive:  true,
		},
		{
			Email:        "business@example.com",
			FirstName:    "Demo",
			LastName:     "Owner",
			Role:         entity.RoleBusiness,
			BusinessName: "Demo Trading Co",
			Website:      "https://example.com",
			IsActive:     true,
		},
	}

	for _, u := range demo {
		hash, err := hasher.Hash(password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		u.PasswordHash = hash
		err = users.Create(ctx, u)
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			fmt.Printf("user exists, skipped: email=%s\n", u.Email)
		case err != nil:
			log.Fatalf("failed to seed user %s: %v", u.Email, err)
		default:
			// demo accounts skip the verification email
			if err := users.SetVerified(ctx, u.ID); err != nil {
				log.Fatalf("failed to verify %s: %v", u.Email, err)
			}
			fmt.Printf("seeded %s user: id=%s email=%s password=%s\n", u.Role, u.ID, u.Email, password)
		}
	}
}
