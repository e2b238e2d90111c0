package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blog-backend/internal/app"
	"blog-backend/internal/model"
	"blog-backend/internal/pkg/jwtutil"
	"blog-backend/internal/transport/http/response"
)

const ContextUserKey = "current_user"

// RequireUser resolves the access token through gate and stores the user in the
// gin context. The token comes from the access cookie, or from an
// "Authorization: Bearer" header when the cookie is absent.
func RequireUser(gate *app.AuthGate, cookieName string, level app.AccessLevel, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := AccessToken(c, cookieName)
		user, err := gate.Resolve(c.Request.Context(), token, jwtutil.TokenTypeAccess, level)
		if err != nil {
			switch {
			case errors.Is(err, app.ErrUnauthenticated):
				response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
			case errors.Is(err, app.ErrInactive):
				response.Error(c, http.StatusBadRequest, response.CodeInactive, err.Error())
			case errors.Is(err, app.ErrUnverified):
				response.Error(c, http.StatusBadRequest, response.CodeUnverified, err.Error())
			default:
				log.Error("resolve current user failed", zap.Error(err))
				response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "authentication failed")
			}
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

func AccessToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
}

func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}
