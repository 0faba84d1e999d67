package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/policy"
	repo "github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
	mailtpl "github.com/oksasatya/go-ddd-auth-service/pkg/mailer/templates"
	"github.com/oksasatya/go-ddd-auth-service/pkg/metrics"
)

// A reset request returns no earlier than ResetMinDuration after it started,
// plus a random delay within the jitter bounds. The floor has to exceed the
// slowest known-address path (lookup, two writes, render and enqueue).
const (
	ResetMinDuration = 250 * time.Millisecond
	ResetJitterMin   = 0
	ResetJitterMax   = 20 * time.Millisecond
)

// RecoveryService runs the password reset flow without revealing which
// addresses are registered.
type RecoveryService struct {
	auditor

	Credentials *CredentialStore
	Resets      repo.PasswordResetRepository
	Tokens      *TokenIssuer
	Refresh     RefreshRevocations
	Policy      *policy.Policy
	Sink        NotificationSink

	Brand      mailtpl.Brand
	ResetURL   string
	TTL        time.Duration
	RefreshTTL time.Duration // lifetime of the refresh watermark

	MinDuration time.Duration
	JitterMin   time.Duration
	JitterMax   time.Duration

	now func() time.Time
}

func NewRecoveryService(creds *CredentialStore, resets repo.PasswordResetRepository, tokens *TokenIssuer, refresh RefreshRevocations, pol *policy.Policy, sink NotificationSink, audit repo.AuditSink, logger *logrus.Logger) *RecoveryService {
	return &RecoveryService{
		auditor:     auditor{Audit: audit, Logger: logger},
		Credentials: creds,
		Resets:      resets,
		Tokens:      tokens,
		Refresh:     refresh,
		Policy:      pol,
		Sink:        sink,
		TTL:         30 * time.Minute,
		RefreshTTL:  30 * 24 * time.Hour,
		MinDuration: ResetMinDuration,
		JitterMin:   ResetJitterMin,
		JitterMax:   ResetJitterMax,
		now:         time.Now,
	}
}

// RequestReset always returns nil. Known and unknown addresses take the same
// padded time to answer; failures are logged, never surfaced.
func (s *RecoveryService) RequestReset(ctx context.Context, email string, meta RequestMeta) error {
	defer s.pad(ctx, time.Now())

	token, err := helpers.RandomToken(helpers.TokenBytes)
	if err != nil {
		s.logError("generate reset token failed", err, nil)
		return nil
	}
	hash := helpers.HashToken(token)

	u, err := s.Credentials.FindByEmail(ctx, email)
	if err != nil {
		s.logError("reset lookup failed", err, nil)
		return nil
	}
	if u == nil || !u.IsActive {
		metrics.PasswordResets.WithLabelValues("unknown").Inc()
		s.record(ctx, entity.AuditResetUnknown, nil, entity.NormalizeEmail(email), meta, nil)
		return nil
	}

	now := s.now().UTC()
	if err := s.Resets.DeleteByUser(ctx, u.ID); err != nil {
		s.logError("clear previous resets failed", err, logrus.Fields{"user_id": u.ID})
	}
	reset := &entity.PasswordReset{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.TTL),
		CreatedAt: now,
	}
	if err := s.Resets.Create(ctx, reset); err != nil {
		s.logError("persist reset failed", err, logrus.Fields{"user_id": u.ID})
		return nil
	}

	data := mailtpl.NewForgotPasswordData(s.Brand, u.FullName(), u.Email,
		mailtpl.LinkWithToken(s.ResetURL, token),
		mailtpl.WithExpiresAt(reset.ExpiresAt),
		mailtpl.WithIP(meta.IP),
		mailtpl.WithUserAgent(meta.UserAgent),
	)
	subject, body, err := mailtpl.Render(mailtpl.ForgotPassword, data)
	if err != nil {
		s.logError("render reset email failed", err, logrus.Fields{"user_id": u.ID})
		return nil
	}
	if err := s.Sink.Send(ctx, u.Email, subject, body); err != nil {
		s.logError("dispatch reset email failed", err, logrus.Fields{"user_id": u.ID})
	}

	metrics.PasswordResets.WithLabelValues("issued").Inc()
	s.record(ctx, entity.AuditResetIssue, u, "", meta, nil)
	return nil
}

// ConfirmReset sets a new password using a reset token. The token is only
// consumed once the password passed every rule, including the ones that
// compare it with the owner's attributes.
func (s *RecoveryService) ConfirmReset(ctx context.Context, token, newPassword string, meta RequestMeta) error {
	if err := s.checkPassword(newPassword, policy.UserAttributes{}); err != nil {
		return err
	}
	if token == "" {
		return s.rejectReset(ctx, meta)
	}
	hash := helpers.HashToken(token)

	reset, err := s.Resets.GetActive(ctx, hash)
	if errors.Is(err, repo.ErrNotFound) {
		return s.rejectReset(ctx, meta)
	}
	if err != nil {
		return fmt.Errorf("load reset: %w", err)
	}
	u, err := s.Credentials.GetByID(ctx, reset.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return s.rejectReset(ctx, meta)
	}
	if err != nil {
		return fmt.Errorf("load reset owner: %w", err)
	}
	if err := s.checkPassword(newPassword, policy.UserAttributes{
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		BusinessName: u.BusinessName,
	}); err != nil {
		return err
	}

	passwordHash, err := s.Credentials.HashPassword(newPassword)
	if err != nil {
		return err
	}
	// the atomic consume decides concurrent confirmations; a failed password
	// write rolls it back so the token stays usable
	if _, err := s.Resets.Redeem(ctx, hash, passwordHash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return s.rejectReset(ctx, meta)
		}
		return fmt.Errorf("redeem reset: %w", err)
	}

	if err := s.Tokens.RevokeAll(ctx, u.ID); err != nil {
		s.logError("revoke sessions after reset failed", err, logrus.Fields{"user_id": u.ID})
	}
	if err := s.Refresh.SetRevokedBefore(ctx, u.ID, s.now().UTC(), s.RefreshTTL); err != nil {
		s.logError("set refresh watermark failed", err, logrus.Fields{"user_id": u.ID})
	}

	metrics.PasswordResets.WithLabelValues("confirmed").Inc()
	s.record(ctx, entity.AuditResetConfirm, u, "", meta, nil)
	return nil
}

// pad holds a reset request until MinDuration after start, then adds jitter.
func (s *RecoveryService) pad(ctx context.Context, start time.Time) {
	if elapsed := time.Since(start); s.MinDuration > 0 && elapsed > s.MinDuration && s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"elapsed": elapsed.String(),
			"floor":   s.MinDuration.String(),
		}).Warn("reset request outran its response floor")
	}
	helpers.SleepUntil(ctx, start.Add(s.MinDuration))
	helpers.SleepJitter(ctx, s.JitterMin, s.JitterMax)
}

// Prune deletes expired and consumed reset tokens.
func (s *RecoveryService) Prune(ctx context.Context) (int64, error) {
	n, err := s.Resets.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune resets: %w", err)
	}
	if n > 0 && s.Logger != nil {
		helpers.LogInfo(s.Logger, "pruned password resets", logrus.Fields{"deleted": n})
	}
	return n, nil
}

// RunPruner calls Prune every interval until ctx is done.
func (s *RecoveryService) RunPruner(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Prune(ctx); err != nil && ctx.Err() == nil {
				s.logError("prune resets failed", err, nil)
			}
		}
	}
}

func (s *RecoveryService) checkPassword(password string, attrs policy.UserAttributes) error {
	err := s.Policy.Validate(password, attrs)
	if err == nil {
		return nil
	}
	var weak *policy.WeakPasswordError
	if errors.As(err, &weak) {
		return fieldError("password", weak.Reasons...)
	}
	return err
}

func (s *RecoveryService) rejectReset(ctx context.Context, meta RequestMeta) error {
	metrics.PasswordResets.WithLabelValues("rejected").Inc()
	s.record(ctx, entity.AuditResetConfirmInvalid, nil, "", meta, nil)
	return ErrInvalidOrExpiredToken
}

func (s *RecoveryService) logError(msg string, err error, fields logrus.Fields) {
	if s.Logger != nil {
		helpers.LogError(s.Logger, msg, err, fields)
	}
}
