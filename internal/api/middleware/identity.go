package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nos-commerce-backend/internal/domain/account"
)

const (
	// UserIDHeader carries the authenticated user's id, set by the upstream
	// auth gateway. Requests reaching this service are already authenticated.
	UserIDHeader = "X-User-ID"

	// UserIDKey is the key used to store the parsed user id in the context
	UserIDKey = "user_id"

	// IsAdminKey marks a request that passed the admin role check
	IsAdminKey = "is_admin"
)

// RequireUser extracts the authenticated user id from the upstream header
// and rejects requests without one
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "UNAUTHORIZED", "message": "Missing user identity"},
			})
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "UNAUTHORIZED", "message": "Invalid user identity"},
			})
			return
		}

		c.Set(UserIDKey, id)
		c.Next()
	}
}

// RequireAdmin checks the stored role of the authenticated user. The role
// comes from the account record, never from a client-supplied header.
func RequireAdmin(accounts account.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "UNAUTHORIZED", "message": "Missing user identity"},
			})
			return
		}

		acc, err := accounts.GetByID(c.Request.Context(), userID)
		if err != nil || !acc.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"code": "FORBIDDEN", "message": "Admin role required"},
			})
			return
		}

		c.Set(IsAdminKey, true)
		c.Next()
	}
}

// GetUserID retrieves the authenticated user id from the gin context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(UserIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}
