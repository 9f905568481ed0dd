package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maisonarome/storefront/services"
)

// Context keys set by the auth middleware.
const (
	ContextUserID       = "user_id"
	ContextUserEmail    = "user_email"
	ContextUserName     = "user_name"
	ContextUserRole     = "user_role"
	ContextSessionToken = "session_token"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": message})
}

// RequireAuth rejects requests without a valid access token and stores
// the caller's identity on the context.
func RequireAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			abortUnauthorized(c, "Missing token")
			return
		}
		claims, err := tokens.ValidateToken(tokenStr, "access")
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			abortUnauthorized(c, "Invalid token claims")
			return
		}
		c.Set(ContextUserID, userID)
		if email, ok := claims["email"].(string); ok {
			c.Set(ContextUserEmail, email)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set(ContextUserRole, role)
		}
		c.Next()
	}
}

// RequireAdmin gates a route to admin accounts. Must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserRole) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Access denied"})
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the caller's identity when a token is present but
// lets anonymous requests through. Guest sessions are identified by the
// X-Session-Token header instead.
func OptionalAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := bearerToken(c); tokenStr != "" {
			if claims, err := tokens.ValidateToken(tokenStr, "access"); err == nil {
				if userID, ok := claims["user_id"].(string); ok && userID != "" {
					c.Set(ContextUserID, userID)
					if role, ok := claims["role"].(string); ok {
						c.Set(ContextUserRole, role)
					}
				}
			}
		}
		if sessionToken := c.GetHeader("X-Session-Token"); sessionToken != "" {
			c.Set(ContextSessionToken, sessionToken)
		}
		c.Next()
	}
}
