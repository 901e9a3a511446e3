package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
	"github.com/noah-isme/sitside-api/pkg/response"
)

// RequireRoles only lets authenticated callers with one of roles through.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	names := make([]string, len(roles))
	for i, r := range roles {
		allowed[r] = struct{}{}
		names[i] = string(r)
	}
	denied := appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("access denied, required roles: %s", strings.Join(names, ", ")))

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, denied)
			c.Abort()
			return
		}
		c.Next()
	}
}
