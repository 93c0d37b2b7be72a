package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/luizbraga/baseapi/internal/models"
	"github.com/luizbraga/baseapi/internal/repository"
)

const userContextKey = "current_user"

// TokenAuthMiddleware resolves "Authorization: Bearer <key>" against
// the token store and attaches the owning user to the request context.
// Unknown keys and inactive owners are rejected.
func TokenAuthMiddleware(tokenRepo *repository.TokenRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		key := strings.TrimPrefix(authHeader, "Bearer ")
		if key == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			c.Abort()
			return
		}

		token, err := tokenRepo.GetByKey(key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to verify token",
			})
			c.Abort()
			return
		}
		if token == nil || !token.User.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			c.Abort()
			return
		}

		user := token.User
		c.Set(userContextKey, &user)
		c.Set("user_id", user.ID.String())

		c.Next()
	}
}

// StaffMiddleware requires the authenticated user to be staff.
func StaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			c.Abort()
			return
		}

		if !user.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Staff access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser returns the user attached by TokenAuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
