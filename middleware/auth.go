// middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"studybuddy/models"
	"studybuddy/utils"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// SessionResolver turns a session token into the identity behind it.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (models.Identity, error)
}

// TokenFromRequest reads the session token from the Authorization header, the
// session cookie or the token query parameter, in that order. The query form exists
// for websocket upgrades, where browsers cannot set headers.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(utils.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// AuthMiddleware rejects requests without a live session and stores the identity
// for handlers.
func AuthMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			utils.RespondError(c, utils.Unauthorized("login required"))
			return
		}
		id, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity set by AuthMiddleware, or the zero identity.
func IdentityFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{}
}
