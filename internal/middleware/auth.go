package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/pkg/auth"
	apperrors "github.com/rsmedika/consent-api/pkg/errors"
	"github.com/rsmedika/consent-api/pkg/httputil"
)

const sessionContextKey = "session"

type AuthMiddleware struct {
	jwtSvc auth.JWTService
}

func NewAuthMiddleware(jwtSvc auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc}
}

// Authenticate verifies the bearer token and attaches the session claims to
// the request context. It always runs before any permission check.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwtSvc.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid token"))
			c.Abort()
			return
		}

		c.Set(sessionContextKey, claims)
		c.Next()
	}
}

// RequirePermission checks the capability against the permission snapshot
// embedded in the verified session. Without a session it fails closed with
// 401 rather than 403.
func (m *AuthMiddleware) RequirePermission(capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("authentication required"))
			c.Abort()
			return
		}

		if !session.Permissions.Has(capability) {
			httputil.RespondWithError(c, apperrors.Forbidden("insufficient permissions"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// SessionFromContext returns the verified session claims, or nil when the
// request did not pass Authenticate.
func SessionFromContext(c *gin.Context) *auth.Claims {
	v, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
