package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/internal/application"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
	"github.com/oksasatya/go-ddd-auth-service/pkg/response"
)

// AuthUseCases is implemented by *application.AuthService.
type AuthUseCases interface {
	Login(ctx context.Context, in application.LoginInput, meta application.RequestMeta) (*application.AuthResult, error)
	Register(ctx context.Context, in application.RegisterInput, meta application.RequestMeta) (*application.AuthResult, error)
	Logout(ctx context.Context, sess *application.AuthSession, refreshToken string, meta application.RequestMeta) error
	RefreshToken(ctx context.Context, sess *application.AuthSession, meta application.RequestMeta) (entity.SessionToken, error)
}

// RecoveryUseCases is implemented by *application.RecoveryService.
type RecoveryUseCases interface {
	RequestReset(ctx context.Context, email string, meta application.RequestMeta) error
	ConfirmReset(ctx context.Context, token, newPassword string, meta application.RequestMeta) error
}

// VerificationUseCases is implemented by *application.VerificationService.
type VerificationUseCases interface {
	Init(ctx context.Context, sess *application.AuthSession, meta application.RequestMeta) error
	Confirm(ctx context.Context, token string, meta application.RequestMeta) error
}

type AuthHandler struct {
	Auth     AuthUseCases
	Recovery RecoveryUseCases
	Verify   VerificationUseCases
	Logger   *logrus.Logger
	Cookies  *helpers.Manager
}

func NewAuthHandler(auth AuthUseCases, recovery RecoveryUseCases, verify VerificationUseCases, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		Auth:     auth,
		Recovery: recovery,
		Verify:   verify,
		Logger:   logger,
		Cookies:  helpers.NewCookie(cookieDomain, cookieSecure),
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

type businessRequest struct {
	BusinessName string `json:"business_name" binding:"omitempty,bizname"`
	Website      string `json:"website" binding:"omitempty,url"`
	Phone        string `json:"phone" binding:"omitempty,phone"`
}

type registerRequest struct {
	Role            string           `json:"role" binding:"omitempty,role"`
	FirstName       string           `json:"first_name" binding:"max=150"`
	LastName        string           `json:"last_name" binding:"max=150"`
	Email           string           `json:"email" binding:"required,email,max=254"`
	Password        string           `json:"password" binding:"required"`
	ConfirmPassword string           `json:"confirm_password" binding:"required"`
	Business        *businessRequest `json:"business"`
	AcceptTOS       bool             `json:"accept_tos"`
	MarketingOptIn  bool             `json:"marketing_opt_in"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type verifyConfirmRequest struct {
	Token string `json:"token" binding:"required"`
}

type tokensView struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type authResponse struct {
	User                      application.UserPublicView `json:"user"`
	Tokens                    tokensView                 `json:"tokens"`
	RequiresEmailVerification *bool                      `json:"requiresEmailVerification,omitempty"`
}

func requestMeta(c *gin.Context) application.RequestMeta {
	return application.RequestMeta{IP: middleware.ClientIP(c), UserAgent: c.Request.UserAgent()}
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, t application.Tokens) {
	h.Cookies.SetPair(c, t.Access, t.AccessExpiresAt, t.Refresh, t.RefreshExpiresAt, t.Remember)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), application.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Remember: req.Remember,
	}, requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.setTokenCookies(c, res.Tokens)
	response.Raw(c, http.StatusOK, authResponse{
		User:   application.ToPublicView(res.User),
		Tokens: tokensView{Access: res.Tokens.Access, Refresh: res.Tokens.Refresh},
	})
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in := application.RegisterInput{
		Role:            req.Role,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AcceptTOS:       req.AcceptTOS,
		MarketingOptIn:  req.MarketingOptIn,
	}
	if req.Business != nil {
		in.Business = &application.BusinessInfo{
			Name:    req.Business.BusinessName,
			Website: req.Business.Website,
			Phone:   req.Business.Phone,
		}
	}
	res, err := h.Auth.Register(c.Request.Context(), in, requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.setTokenCookies(c, res.Tokens)
	requires := res.RequiresEmailVerification
	response.Raw(c, http.StatusCreated, authResponse{
		User:                      application.ToPublicView(res.User),
		Tokens:                    tokensView{Access: res.Tokens.Access, Refresh: res.Tokens.Refresh},
		RequiresEmailVerification: &requires,
	})
}

// Logout POST /api/auth/logout. Always 204.
func (h *AuthHandler) Logout(c *gin.Context) {
	_ = h.Auth.Logout(c.Request.Context(), middleware.Session(c), middleware.RefreshToken(c), requestMeta(c))
	h.Cookies.Clear(c)
	response.NoContent(c)
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	tok, err := h.Auth.RefreshToken(c.Request.Context(), middleware.Session(c), requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetAccess(c, tok.Value, tok.ExpiresAt, false)
	response.Raw(c, http.StatusOK, gin.H{"access": tok.Value})
}

// ForgotPassword POST /api/auth/forgot-password. 204 whether or not the address is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	_ = h.Recovery.RequestReset(c.Request.Context(), req.Email, requestMeta(c))
	response.NoContent(c)
}

// ResetPassword POST /api/auth/reset-password {token, password}
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Recovery.ConfirmReset(c.Request.Context(), req.Token, req.Password, requestMeta(c)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

// VerifyInit POST /api/auth/verify-email/init (auth required)
func (h *AuthHandler) VerifyInit(c *gin.Context) {
	if err := h.Verify.Init(c.Request.Context(), middleware.Session(c), requestMeta(c)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

// VerifyConfirm POST /api/auth/verify-email/confirm {token}
func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	var req verifyConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.Verify.Confirm(c.Request.Context(), req.Token, requestMeta(c)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}
