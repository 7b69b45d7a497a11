package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const ginUserKey = "user_id"

// GinMiddleware is AuthMiddleware for gin routes. The user id is stored both
// in the gin context and in the request context.
func GinMiddleware(tokens *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := TokenFromRequest(c.Request)
		if tokenStr == "" {
			c.Next()
			return
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ginUserKey, claims.UserID)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// Required aborts with 401 unless GinMiddleware found a valid identity.
func Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id of a gin request.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(ginUserKey)
	return id, id != ""
}
