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
	mailtpl "github.com/oksasatya/go-ddd-auth-service/pkg/mailer/templates"
)

// VerificationService confirms that a user owns their email address.
type VerificationService struct {
	auditor

	Credentials *CredentialStore
	Store       VerificationStore
	Sink        NotificationSink
	Brand       mailtpl.Brand
	VerifyURL   string
	TTL         time.Duration
}

func NewVerificationService(creds *CredentialStore, store VerificationStore, sink NotificationSink, audit repo.AuditSink, logger *logrus.Logger) *VerificationService {
	return &VerificationService{
		auditor:     auditor{Audit: audit, Logger: logger},
		Credentials: creds,
		Store:       store,
		Sink:        sink,
		TTL:         24 * time.Hour,
	}
}

// Init emails a verification link. Already verified users get nothing.
func (s *VerificationService) Init(ctx context.Context, sess *AuthSession, meta RequestMeta) error {
	if !sess.Authenticated() {
		return ErrUnauthenticated
	}
	u := sess.User
	if u.EmailVerified {
		return nil
	}
	token, err := helpers.RandomToken(helpers.TokenBytes)
	if err != nil {
		return fmt.Errorf("generate verify token: %w", err)
	}
	if err := s.Store.Put(ctx, token, u.ID, s.TTL); err != nil {
		return fmt.Errorf("store verify token: %w", err)
	}
	data := mailtpl.NewVerifyEmailData(s.Brand, u.FullName(), u.Email,
		mailtpl.LinkWithToken(s.VerifyURL, token),
		mailtpl.WithExpiresAt(time.Now().Add(s.TTL)),
	)
	subject, body, err := mailtpl.Render(mailtpl.VerifyEmail, data)
	if err != nil {
		return fmt.Errorf("render verify email: %w", err)
	}
	if err := s.Sink.Send(ctx, u.Email, subject, body); err != nil {
		return fmt.Errorf("dispatch verify email: %w", err)
	}
	s.record(ctx, entity.AuditVerifyIssue, u, "", meta, nil)
	return nil
}

// Confirm consumes token and marks its owner verified.
func (s *VerificationService) Confirm(ctx context.Context, token string, meta RequestMeta) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}
	uid, err := s.Store.Take(ctx, token)
	if err != nil {
		return fmt.Errorf("take verify token: %w", err)
	}
	if uid == "" {
		return ErrInvalidOrExpiredToken
	}
	if err := s.Credentials.SetVerified(ctx, uid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("mark verified: %w", err)
	}
	s.record(ctx, entity.AuditVerifyConfirm, &entity.User{ID: uid}, "", meta, nil)
	return nil
}
