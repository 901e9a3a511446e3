package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
	"github.com/noah-isme/sitside-api/pkg/logger"
	"github.com/noah-isme/sitside-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextAccountKey stores the account loaded while authenticating.
	ContextAccountKey = "currentAccount"
)

// Authenticator resolves a bearer token into claims and the owning account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.JWTClaims, *models.User, error)
}

// JWT protects routes by requiring a valid access token for an active account.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "no token provided, authorization denied"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, user, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextAccountKey, user)
		c.Set(logger.ContextUserIDKey, claims.UserID)
		c.Next()
	}
}
