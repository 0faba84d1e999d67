package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/internal/application"
	"github.com/oksasatya/go-ddd-auth-service/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-auth-service/pkg/response"
)

// MaxAvatarBytes caps avatar uploads.
const MaxAvatarBytes = 5 << 20

// ProfileUseCases is implemented by *application.AuthService.
type ProfileUseCases interface {
	GetProfile(sess *application.AuthSession) (application.UserPublicView, error)
	UpdateProfile(ctx context.Context, sess *application.AuthSession, in application.UpdateProfileInput, meta application.RequestMeta) (application.UserPublicView, error)
	UploadAvatar(ctx context.Context, sess *application.AuthSession, r io.Reader, filename, contentType string) (string, error)
}

type UserHandler struct {
	Profile ProfileUseCases
	Logger  *logrus.Logger
}

func NewUserHandler(profile ProfileUseCases, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Profile: profile, Logger: logger}
}

type businessPatch struct {
	BusinessName *string `json:"business_name" binding:"omitempty,bizname"`
	Website      *string `json:"website" binding:"omitempty,url"`
	Phone        *string `json:"phone" binding:"omitempty,phone"`
}

type updateProfileRequest struct {
	FirstName      *string        `json:"first_name" binding:"omitempty,max=150"`
	LastName       *string        `json:"last_name" binding:"omitempty,max=150"`
	MarketingOptIn *bool          `json:"marketing_opt_in"`
	Business       *businessPatch `json:"business"`
}

// GetProfile GET /api/auth/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	view, err := h.Profile.GetProfile(middleware.Session(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Raw(c, http.StatusOK, view)
}

// UpdateProfile PUT /api/auth/profile. Omitted fields are left unchanged.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in := application.UpdateProfileInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		MarketingOptIn: req.MarketingOptIn,
	}
	if b := req.Business; b != nil {
		in.BusinessName, in.Website, in.Phone = b.BusinessName, b.Website, b.Phone
	}
	view, err := h.Profile.UpdateProfile(c.Request.Context(), middleware.Session(c), in, requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Raw(c, http.StatusOK, view)
}

// UploadAvatar POST /api/auth/profile/avatar (multipart, field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAvatarBytes+1<<10)
	fh, err := c.FormFile("avatar")
	if err != nil {
		avatarError(c, "No file was submitted.")
		return
	}
	if fh.Size > MaxAvatarBytes {
		avatarError(c, "Ensure this file is no larger than 5 MB.")
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		avatarError(c, "Upload a valid image.")
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	defer f.Close()

	url, err := h.Profile.UploadAvatar(c.Request.Context(), middleware.Session(c), f, fh.Filename, contentType)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Raw(c, http.StatusOK, gin.H{"avatar_url": url})
}

func avatarError(c *gin.Context, msg string) {
	response.Error[any](c, http.StatusBadRequest, msg, map[string][]string{"avatar": {msg}})
}
