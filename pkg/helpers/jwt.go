package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidRefreshToken is returned for any refresh token that fails parsing or verification.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// ClaimsPrecision is the resolution of iat/exp in issued refresh tokens. The
// per-user revocation watermark is compared at the same resolution.
const ClaimsPrecision = time.Millisecond

func init() {
	jwt.TimePrecision = ClaimsPrecision
}

// JWTManager signs and parses refresh credentials. Access tokens are opaque
// and live in Redis; only the refresh credential is a JWT.
type JWTManager struct {
	RefreshSecret []byte
	RefreshTTL    time.Duration
	RememberTTL   time.Duration
	Issuer        string

	now func() time.Time
}

func NewJWTManager(refreshSecret string, refreshTTL, rememberTTL time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		RefreshSecret: []byte(refreshSecret),
		RefreshTTL:    refreshTTL,
		RememberTTL:   rememberTTL,
		Issuer:        issuer,
		now:           time.Now,
	}
}

// Claims carries the owner (uid) and the session family (sid). The jti is
// the RegisteredClaims ID and is what logout revokes.
type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TTLFor returns the refresh lifetime for the remember flag.
func (m *JWTManager) TTLFor(remember bool) time.Duration {
	if remember && m.RememberTTL > 0 {
		return m.RememberTTL
	}
	return m.RefreshTTL
}

// GenerateRefreshToken signs a refresh JWT for userID. An empty sessionID starts a new session family.
func (m *JWTManager) GenerateRefreshToken(userID, sessionID string, remember bool) (string, *Claims, error) {
	now := m.clock()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	claims := &Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTLFor(remember))),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.RefreshSecret)
	if err != nil {
		return "", nil, err
	}
	return s, claims, nil
}

func (m *JWTManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(m.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.Issuer))
	}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.RefreshSecret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidRefreshToken, err)
	}
	if !tkn.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

func (m *JWTManager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
