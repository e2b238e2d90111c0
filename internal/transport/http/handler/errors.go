package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blog-backend/internal/app"
	"blog-backend/internal/transport/http/response"
)

// writeError maps service errors to the response envelope. Unknown errors are
// logged and answered with fallback as a 500.
func writeError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailExists):
		response.Error(c, http.StatusBadRequest, response.CodeEmailExists, err.Error())
	case errors.Is(err, app.ErrUsernameExists):
		response.Error(c, http.StatusBadRequest, response.CodeUsernameExists, err.Error())
	case errors.Is(err, app.ErrInvalidOrExpired):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidOTP, err.Error())
	case errors.Is(err, app.ErrUnverified):
		response.Error(c, http.StatusBadRequest, response.CodeUnverified, err.Error())
	case errors.Is(err, app.ErrInactive):
		response.Error(c, http.StatusBadRequest, response.CodeInactive, err.Error())
	case errors.Is(err, app.ErrInvalidCredential):
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
	case errors.Is(err, app.ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
	case errors.Is(err, app.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, app.ErrPostNotFound), errors.Is(err, app.ErrNoPosts):
		response.Error(c, http.StatusNotFound, response.CodePostNotFound, err.Error())
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
	case errors.Is(err, app.ErrSlugCollision):
		response.Error(c, http.StatusConflict, response.CodeSlugCollision, err.Error())
	case errors.Is(err, app.ErrTooManyRequests):
		response.Error(c, http.StatusTooManyRequests, response.CodeTooManyRequests, err.Error())
	default:
		log.Error(fallback, zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
