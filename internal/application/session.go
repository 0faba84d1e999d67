package application

import (
	"time"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
)

// AuthVia tells which credential authenticated a request.
type AuthVia string

const (
	ViaAccessToken  AuthVia = "access"
	ViaRefreshToken AuthVia = "refresh"
)

// AuthSession is the authenticated caller, built by middleware and handed to
// every operation that needs one. A nil session means anonymous.
type AuthSession struct {
	User  *entity.User
	Token string // presented credential, access token or refresh JWT
	Via   AuthVia

	// refresh credentials only
	SessionID string
	RefreshID string
	ExpiresAt time.Time
}

func (s *AuthSession) Authenticated() bool {
	return s != nil && s.User != nil
}

// RequestMeta is request context recorded in audit events and emails.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Tokens is the credential pair returned by login and register.
type Tokens struct {
	Access           string
	AccessExpiresAt  time.Time
	Refresh          string
	RefreshExpiresAt time.Time
	Remember         bool
}

// AuthResult is returned by Login and Register.
type AuthResult struct {
	User                      *entity.User
	Tokens                    Tokens
	RequiresEmailVerification bool
}

// UserPublicView is the only user representation that leaves the service.
type UserPublicView struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

func ToPublicView(u *entity.User) UserPublicView {
	return UserPublicView{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
	}
}
