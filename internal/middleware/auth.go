package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"authd/internal/security"
)

const (
	ContextUserID      = "user_id"
	ContextUsername    = "username"
	ContextRole        = "role"
	ContextAccessToken = "access_token"
)

// Auth verifies the bearer access token and places the caller's identity in
// the request context. Access tokens authenticate without a repository
// lookup; expiry and signature are the only checks.
func Auth(signer *security.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		claims, err := signer.Verify(tokenStr)
		if err != nil {
			status := http.StatusUnauthorized
			message := "invalid_token"
			if errors.Is(err, security.ErrTokenExpired) {
				status = http.StatusForbidden
				message = "expired_token"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": message})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextAccessToken, tokenStr)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}
