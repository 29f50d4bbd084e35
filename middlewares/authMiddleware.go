package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

// AuthMiddleware validates the Bearer token and installs the request
// principal. Requests without an Authorization header pass through
// unauthenticated; handlers that require a principal reject them.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Request.Header.Get("Authorization")
		if header == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(header, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		tokenStr := header[len(bearer):]

		validate, err := utils.JwtValidate(tokenStr)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := auth.WithPrincipal(c.Request.Context(), auth.Principal{
			ID:         claim.ID,
			Role:       models.UserRole(claim.Role),
			Department: claim.Department,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
