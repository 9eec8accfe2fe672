package middleware

import (
	"net/http"
	"strings"

	"vpnshop/config"
	"vpnshop/internal/auth"

	"github.com/gin-gonic/gin"
)

// ServiceAuth validates the service token on internal API routes. Webhook
// routes never use this; providers authenticate with payload signatures.
// The token is taken from the Authorization header, or from the "token"
// query parameter for websocket upgrades where custom headers are awkward.
func ServiceAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		claims, err := auth.ParseServiceToken(cfg, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("service", claims.Service)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
