package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/policy"
	repo "github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
	"github.com/oksasatya/go-ddd-auth-service/pkg/metrics"
)

// AuthService orchestrates login, registration, session refresh and profile access.
type AuthService struct {
	auditor

	Credentials *CredentialStore
	Tokens      *TokenIssuer
	JWT         *helpers.JWTManager
	Refresh     RefreshRevocations
	Policy      *policy.Policy
	Uploader    AvatarUploader

	now func() time.Time
}

func NewAuthService(creds *CredentialStore, tokens *TokenIssuer, jwt *helpers.JWTManager, refresh RefreshRevocations, pol *policy.Policy, audit repo.AuditSink, logger *logrus.Logger) *AuthService {
	return &AuthService{
		auditor:     auditor{Audit: audit, Logger: logger},
		Credentials: creds,
		Tokens:      tokens,
		JWT:         jwt,
		Refresh:     refresh,
		Policy:      pol,
		now:         time.Now,
	}
}

type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

// Login never tells an unknown email apart from a wrong password. A disabled
// account is only reported once the password matched.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta RequestMeta) (*AuthResult, error) {
	u, err := s.Credentials.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if !s.Credentials.VerifyPassword(u, in.Password) {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		s.record(ctx, entity.AuditLoginFailed, u, entity.NormalizeEmail(in.Email), meta, nil)
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		metrics.LoginAttempts.WithLabelValues("disabled").Inc()
		s.record(ctx, entity.AuditLoginDisabled, u, "", meta, nil)
		return nil, ErrAccountDisabled
	}

	tokens, err := s.issueTokens(ctx, u, in.Remember)
	if err != nil {
		return nil, err
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.record(ctx, entity.AuditLoginSuccess, u, "", meta, map[string]any{"remember": in.Remember})
	return &AuthResult{User: u, Tokens: tokens, RequiresEmailVerification: !u.EmailVerified}, nil
}

type RegisterInput struct {
	Role            string
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Business        *BusinessInfo
	AcceptTOS       bool
	MarketingOptIn  bool
}

// Register validates every field, reports all problems at once, then creates
// an unverified user and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*AuthResult, error) {
	verr := NewValidationError()

	role, ok := entity.ParseRole(strings.TrimSpace(in.Role))
	if !ok {
		verr.Add("role", fmt.Sprintf("%q is not a valid choice.", in.Role))
	}
	if in.Password != in.ConfirmPassword {
		verr.Add(NonFieldErrors, MsgPasswordMismatch)
	}
	if !in.AcceptTOS {
		verr.Add(NonFieldErrors, MsgAcceptTOS)
	}
	if role == entity.RoleBusiness && (in.Business == nil || strings.TrimSpace(in.Business.Name) == "") {
		verr.Add(NonFieldErrors, MsgBusinessNameRequired)
	}
	attrs := policy.UserAttributes{Email: in.Email, FirstName: in.FirstName, LastName: in.LastName}
	if in.Business != nil {
		attrs.BusinessName = in.Business.Name
	}
	if err := s.Policy.Validate(in.Password, attrs); err != nil {
		var weak *policy.WeakPasswordError
		if !errors.As(err, &weak) {
			return nil, err
		}
		verr.Add("password", weak.Reasons...)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	u, err := s.Credentials.Create(ctx, NewUser{
		Email:          in.Email,
		Password:       in.Password,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Role:           role,
		MarketingOptIn: in.MarketingOptIn,
		Business:       in.Business,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return nil, fieldError("email", MsgEmailTaken)
	}
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, u, false)
	if err != nil {
		return nil, err
	}
	metrics.Registrations.WithLabelValues(string(u.Role)).Inc()
	s.record(ctx, entity.AuditRegister, u, "", meta, map[string]any{"role": string(u.Role)})
	return &AuthResult{User: u, Tokens: tokens, RequiresEmailVerification: !u.EmailVerified}, nil
}

// Logout always succeeds. It revokes whatever credentials the caller presented.
func (s *AuthService) Logout(ctx context.Context, sess *AuthSession, refreshToken string, meta RequestMeta) error {
	if sess.Authenticated() && sess.Via == ViaAccessToken {
		if err := s.Tokens.Revoke(ctx, sess.Token); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", sess.User.ID).Warn("revoke session token failed")
		}
	}
	if refreshToken != "" {
		if claims, err := s.JWT.ParseRefreshToken(refreshToken); err == nil {
			if err := s.Refresh.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil && s.Logger != nil {
				s.Logger.WithError(err).WithField("user_id", claims.UserID).Warn("revoke refresh token failed")
			}
		}
	}
	var u *entity.User
	if sess.Authenticated() {
		u = sess.User
	}
	s.record(ctx, entity.AuditLogout, u, "", meta, nil)
	return nil
}

// RefreshToken returns the caller's access token with a renewed expiry,
// issuing a fresh one when none is live.
func (s *AuthService) RefreshToken(ctx context.Context, sess *AuthSession, meta RequestMeta) (entity.SessionToken, error) {
	if !sess.Authenticated() {
		return entity.SessionToken{}, ErrUnauthenticated
	}
	tok, created, err := s.Tokens.IssueOrGet(ctx, sess.User)
	if err != nil {
		return entity.SessionToken{}, err
	}
	if !created {
		touched, err := s.Tokens.Touch(ctx, tok.Value)
		switch {
		case err == nil:
			tok = touched
		case errors.Is(err, ErrInvalidToken):
			// expired between the two calls
			tok, _, err = s.Tokens.IssueOrGet(ctx, sess.User)
			if err != nil {
				return entity.SessionToken{}, err
			}
		default:
			return entity.SessionToken{}, err
		}
	}
	s.record(ctx, entity.AuditRefresh, sess.User, "", meta, map[string]any{"via": string(sess.Via)})
	return tok, nil
}

// Authenticate resolves an access token into a session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*AuthSession, error) {
	u, err := s.Tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return &AuthSession{User: u, Token: token, Via: ViaAccessToken}, nil
}

// AuthenticateRefresh validates a refresh JWT on its own: signature, expiry,
// revocation list, the per-user reset watermark and the owner's status.
func (s *AuthService) AuthenticateRefresh(ctx context.Context, refreshToken string) (*AuthSession, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	revoked, err := s.Refresh.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check refresh revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	before, err := s.Refresh.RevokedBefore(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("check refresh watermark: %w", err)
	}
	// iat only carries ClaimsPrecision, so the watermark is cut to the same resolution
	if !before.IsZero() && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(before.Truncate(helpers.ClaimsPrecision)) {
		return nil, ErrInvalidToken
	}
	u, err := s.Credentials.GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load refresh owner: %w", err)
	}
	if !u.IsActive {
		return nil, ErrInvalidToken
	}
	sess := &AuthSession{
		User:      u,
		Token:     refreshToken,
		Via:       ViaRefreshToken,
		SessionID: claims.SessionID,
		RefreshID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func (s *AuthService) GetProfile(sess *AuthSession) (UserPublicView, error) {
	if !sess.Authenticated() {
		return UserPublicView{}, ErrUnauthenticated
	}
	return ToPublicView(sess.User), nil
}

// UpdateProfileInput fields left nil are not changed.
type UpdateProfileInput struct {
	FirstName      *string
	LastName       *string
	MarketingOptIn *bool
	BusinessName   *string
	Website        *string
	Phone          *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, sess *AuthSession, in UpdateProfileInput, meta RequestMeta) (UserPublicView, error) {
	if !sess.Authenticated() {
		return UserPublicView{}, ErrUnauthenticated
	}
	u, err := s.Credentials.GetByID(ctx, sess.User.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return UserPublicView{}, ErrUnauthenticated
	}
	if err != nil {
		return UserPublicView{}, err
	}

	changed := map[string]any{}
	set := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		nv := strings.TrimSpace(*v)
		if nv != *dst {
			*dst = nv
			changed[field] = true
		}
	}
	set("first_name", &u.FirstName, in.FirstName)
	set("last_name", &u.LastName, in.LastName)
	if in.MarketingOptIn != nil && *in.MarketingOptIn != u.MarketingOptIn {
		u.MarketingOptIn = *in.MarketingOptIn
		changed["marketing_opt_in"] = true
	}
	if u.IsBusiness() {
		set("business_name", &u.BusinessName, in.BusinessName)
		set("website", &u.Website, in.Website)
		set("phone", &u.Phone, in.Phone)
		if u.BusinessName == "" {
			return UserPublicView{}, fieldError("business_name", MsgBusinessNameRequired)
		}
	} else if in.BusinessName != nil || in.Website != nil || in.Phone != nil {
		return UserPublicView{}, fieldError(NonFieldErrors, "Business fields are only available for business accounts.")
	}

	if len(changed) == 0 {
		return ToPublicView(u), nil
	}
	if err := s.Credentials.Update(ctx, u); err != nil {
		return UserPublicView{}, fmt.Errorf("update profile: %w", err)
	}
	s.record(ctx, entity.AuditProfileUpdated, u, "", meta, changed)
	return ToPublicView(u), nil
}

// UploadAvatar stores the image and points the profile at it.
func (s *AuthService) UploadAvatar(ctx context.Context, sess *AuthSession, r io.Reader, filename, contentType string) (string, error) {
	if !sess.Authenticated() {
		return "", ErrUnauthenticated
	}
	if s.Uploader == nil {
		return "", ErrStorageUnavailable
	}
	u, err := s.Credentials.GetByID(ctx, sess.User.ID)
	if err != nil {
		return "", err
	}
	objectPath := helpers.AvatarObjectPath(u.ID, filename, s.now().Unix())
	url, err := s.Uploader.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	u.AvatarURL = url
	if err := s.Credentials.Update(ctx, u); err != nil {
		return "", fmt.Errorf("save avatar url: %w", err)
	}
	return url, nil
}

func (s *AuthService) issueTokens(ctx context.Context, u *entity.User, remember bool) (Tokens, error) {
	tok, _, err := s.Tokens.IssueOrGet(ctx, u)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("issue session token failed")
		}
		return Tokens{}, err
	}
	refresh, claims, err := s.JWT.GenerateRefreshToken(u.ID, "", remember)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return Tokens{}, err
	}
	return Tokens{
		Access:           tok.Value,
		AccessExpiresAt:  tok.ExpiresAt,
		Refresh:          refresh,
		RefreshExpiresAt: claims.ExpiresAt.Time,
		Remember:         remember,
	}, nil
}
