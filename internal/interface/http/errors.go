package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/internal/application"
	"github.com/oksasatya/go-ddd-auth-service/pkg/response"
	"github.com/oksasatya/go-ddd-auth-service/pkg/validation"
)

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(c *gin.Context, logger logrus.FieldLogger, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, application.ErrInvalidCredentials):
		nonField(c, application.MsgInvalidCredentials)
	case errors.Is(err, application.ErrAccountDisabled):
		nonField(c, application.MsgAccountDisabled)
	case errors.Is(err, application.ErrInvalidOrExpiredToken):
		response.Error[any](c, http.StatusBadRequest, application.MsgInvalidResetToken,
			map[string][]string{"token": {application.MsgInvalidResetToken}})
	case errors.Is(err, application.ErrUnauthenticated):
		response.Error[any](c, http.StatusUnauthorized, "Authentication credentials were not provided.", nil)
	case errors.Is(err, application.ErrInvalidToken):
		response.Error[any](c, http.StatusUnauthorized, "Invalid token.", nil)
	case errors.Is(err, application.ErrStorageUnavailable):
		response.Error[any](c, http.StatusServiceUnavailable, "file storage is not configured", nil)
	default:
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			}).Error("request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func nonField(c *gin.Context, msg string) {
	response.Error[any](c, http.StatusBadRequest, msg,
		map[string][]string{application.NonFieldErrors: {msg}})
}

func bindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}
