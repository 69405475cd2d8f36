package middleware

import (
	"github.com/gin-gonic/gin"
)

// DevelopmentUserID is used when no user is present in development mode
const DevelopmentUserID = "00000000-0000-0000-0000-000000000001"

// DevelopmentAuthMiddleware fills the user context keys expected by the RBAC
// middleware so the API can be exercised locally without a token.
func DevelopmentAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			userID = c.GetHeader("X-User-ID")
		}
		if userID == "" {
			userID = DevelopmentUserID
		}

		c.Set("userId", userID)
		c.Set("user_id", userID)
		c.Set("staff_id", userID) // RBAC middleware checks staff_id first
		c.Next()
	}
}
