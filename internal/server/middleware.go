package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simbunathan/ocr-app/internal/auth"
)

const userIDKey = "userID"

// AuthRequired verifies the bearer token and stores the authenticated userID
// in the request context. Every job-scoped route runs behind it; the
// services never resolve identity from anywhere else.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Missing token"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		userID, err := tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
