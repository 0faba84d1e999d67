package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/go-ddd-auth-service/internal/interface/http"
	"github.com/oksasatya/go-ddd-auth-service/internal/interface/middleware"
)

// AuthModule wires the account endpoints under /auth.
// Public: login, register, forgot-password, reset-password, verify-email/confirm
// Optional session: logout
// Access token or refresh JWT: refresh
// Protected: verify-email/init, profile
type AuthModule struct {
	Auth   *handlers.AuthHandler
	User   *handlers.UserHandler
	Authn  middleware.Authenticator
	RDB    redis.Cmdable
	Logger *logrus.Logger
}

func NewAuthModule(auth *handlers.AuthHandler, user *handlers.UserHandler, authn middleware.Authenticator, rdb redis.Cmdable, logger *logrus.Logger) *AuthModule {
	return &AuthModule{Auth: auth, User: user, Authn: authn, RDB: rdb, Logger: logger}
}

func (m *AuthModule) limit(max int, key middleware.KeyFunc) gin.HandlerFunc {
	return middleware.RateLimit(m.RDB, max, time.Minute, key, nil)
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/auth")

	g.POST("/login", m.limit(10, middleware.KeyByIPAndPath()), m.Auth.Login)
	g.POST("/register", m.limit(10, middleware.KeyByIPAndPath()), m.Auth.Register)
	g.POST("/forgot-password", m.limit(5, middleware.KeyByIPAndPath()), m.Auth.ForgotPassword)
	g.POST("/reset-password", m.limit(30, middleware.KeyByIPAndPath()), m.Auth.ResetPassword)
	g.POST("/verify-email/confirm", m.limit(30, middleware.KeyByIPAndPath()), m.Auth.VerifyConfirm)

	g.POST("/logout", middleware.OptionalAuth(m.Authn, m.Logger), m.Auth.Logout)
	g.POST("/refresh", m.limit(60, middleware.KeyByIP()), middleware.RefreshAuth(m.Authn, m.Logger), m.Auth.Refresh)

	auth := g.Group("/")
	auth.Use(
		middleware.Auth(m.Authn, m.Logger),
		m.limit(120, middleware.KeyByUserID()),
	)
	{
		auth.POST("/verify-email/init", m.limit(5, middleware.KeyByUserID()), m.Auth.VerifyInit)
		auth.GET("/profile", m.User.GetProfile)
		auth.PUT("/profile", m.User.UpdateProfile)
		auth.POST("/profile/avatar", m.limit(10, middleware.KeyByUserID()), m.User.UploadAvatar)
	}
}
