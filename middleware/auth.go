package middleware

import (
	"crypto/subtle"
	"fleet-backend/utils"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthRequired verifies the bearer JWT and stores the caller's session.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.Unauthorized(c, "Authorization token not provided")
			c.Abort()
			return
		}

		session, err := utils.VerifyToken(secret, token)
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		utils.SetSession(c, session)
		c.Next()
	}
}

// CronSecretRequired guards the generation trigger with a shared secret. An
// empty secret disables the check.
func CronSecretRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(c)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			utils.Unauthorized(c, "Invalid trigger secret")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
