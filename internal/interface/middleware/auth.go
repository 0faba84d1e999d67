package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/internal/application"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
	"github.com/oksasatya/go-ddd-auth-service/pkg/response"
)

// SessionKey is the gin context key holding the *application.AuthSession.
const SessionKey = "auth_session"

// RefreshHeader carries a refresh JWT for clients that do not use cookies.
const RefreshHeader = "X-Refresh-Token"

// Authenticator turns presented credentials into a session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*application.AuthSession, error)
	AuthenticateRefresh(ctx context.Context, refreshToken string) (*application.AuthSession, error)
}

// Session returns the caller's session, or nil for anonymous requests.
func Session(c *gin.Context) *application.AuthSession {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*application.AuthSession)
	return sess
}

// AccessToken reads the token from "Authorization: Bearer", "Authorization: Token"
// or the access_token cookie, in that order.
func AccessToken(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && (strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "Token")) {
			return strings.TrimSpace(tok)
		}
	}
	if v, err := c.Cookie(helpers.AccessCookie); err == nil {
		return v
	}
	return ""
}

type refreshBody struct {
	Refresh string `json:"refresh"`
}

// RefreshToken reads a refresh JWT from the JSON body, the refresh_token cookie
// or the X-Refresh-Token header. The body is cached so handlers can bind it again.
func RefreshToken(c *gin.Context) string {
	if c.Request.Body != nil && c.Request.ContentLength != 0 &&
		strings.HasPrefix(c.ContentType(), binding.MIMEJSON) {
		var body refreshBody
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err == nil && body.Refresh != "" {
			return body.Refresh
		}
	}
	if v, err := c.Cookie(helpers.RefreshCookie); err == nil && v != "" {
		return v
	}
	return strings.TrimSpace(c.GetHeader(RefreshHeader))
}

// Auth requires a valid access token.
func Auth(a Authenticator, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := AccessToken(c)
		if token == "" {
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}
		sess, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortAuthError(c, logger, err)
			return
		}
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// OptionalAuth attaches a session when a valid access token is present and
// lets every request through.
func OptionalAuth(a Authenticator, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := AccessToken(c); token != "" {
			sess, err := a.Authenticate(c.Request.Context(), token)
			switch {
			case err == nil:
				c.Set(SessionKey, sess)
			case !errors.Is(err, application.ErrInvalidToken) && logger != nil:
				logger.WithError(err).Warn("optional auth lookup failed")
			}
		}
		c.Next()
	}
}

// RefreshAuth accepts either a valid access token or a valid refresh JWT.
func RefreshAuth(a Authenticator, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if token := AccessToken(c); token != "" {
			sess, err := a.Authenticate(ctx, token)
			if err == nil {
				c.Set(SessionKey, sess)
				c.Next()
				return
			}
			if !errors.Is(err, application.ErrInvalidToken) {
				abortAuthError(c, logger, err)
				return
			}
		}
		refresh := RefreshToken(c)
		if refresh == "" {
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}
		sess, err := a.AuthenticateRefresh(ctx, refresh)
		if err != nil {
			abortAuthError(c, logger, err)
			return
		}
		c.Set(SessionKey, sess)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	response.Error[any](c, http.StatusUnauthorized, msg, nil)
	c.Abort()
}

func abortAuthError(c *gin.Context, logger logrus.FieldLogger, err error) {
	if errors.Is(err, application.ErrInvalidToken) {
		abortUnauthorized(c, "Invalid token.")
		return
	}
	if logger != nil {
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("authentication backend failed")
	}
	response.Error[any](c, http.StatusServiceUnavailable, "authentication temporarily unavailable", nil)
	c.Abort()
}
