package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/domain"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(tokenSvc domain.TokenService, sessions domain.SessionRegistry) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := tokenSvc.ValidateAccessToken(tokenParts[1])
		if err != nil {
			switch err {
			case domain.ErrTokenExpired:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			case domain.ErrTokenInvalid, domain.ErrTokenMalformed:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token validation failed"})
			}
			c.Abort()
			return
		}

		// Validate session still exists in Redis (critical security check):
		// a revoked session must not outlive its access token.
		if claims.SessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has no session"})
			c.Abort()
			return
		}
		session, err := sessions.FindByID(c.Request.Context(), claims.SessionID)
		if err != nil || session == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session invalid or expired"})
			c.Abort()
			return
		}
		if session.AccountID != claims.AccountID {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session account mismatch"})
			c.Abort()
			return
		}

		// Any authenticated request counts as activity on the session.
		_ = sessions.Touch(c.Request.Context(), claims.SessionID)

		c.Set("account_id", fmt.Sprintf("%d", claims.AccountID)) // string for Casbin compatibility
		c.Set("account_role", claims.Role)
		c.Set("session_id", claims.SessionID)

		c.Next()
	})
}
