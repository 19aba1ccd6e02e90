package middleware

import (
	"net/http"
	"strings"

	"stablecircle/internal/logger"
	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
)

const walletKey = "wallet"

// JWT validates the bearer token and stores the wallet in the context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		wallet, err := service.ParseJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(walletKey, wallet)
		c.Request = c.Request.WithContext(logger.WithAttrs(c.Request.Context(), "caller", wallet))
		c.Next()
	}
}

// Wallet returns the authenticated wallet (must run after JWT).
func Wallet(c *gin.Context) (string, bool) {
	w := c.GetString(walletKey)
	return w, w != ""
}
