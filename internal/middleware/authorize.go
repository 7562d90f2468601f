package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"authd/internal/security"
)

// AdminOrSelf lets admin tokens through unconditionally and everyone else
// only when the :id route parameter names their own account. The admin check
// fails closed: any token problem means non-admin, never an error.
func AdminOrSelf(signer *security.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := c.Get(ContextAccessToken)
		if ok {
			if token, ok := tokenStr.(string); ok && signer.IsAdminToken(token) {
				c.Next()
				return
			}
		}

		currentUserID := c.GetString(ContextUserID)
		if currentUserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if c.Param("id") != currentUserID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
