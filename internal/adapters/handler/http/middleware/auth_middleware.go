package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "Bearer"
	ContextUserIDKey    = "userID"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

// AuthMiddleware accepts "Authorization: Bearer <jwt>" and stores the user id
// in the gin context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) != 2 || fields[0] != authorizationType {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		userID, err := tokens.ValidateToken(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok && idStr != ""
}
