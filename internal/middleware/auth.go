// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pokemart/pokemart-backend/internal/models"
	"github.com/pokemart/pokemart-backend/internal/utils"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromHeader(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		setUserContext(c, claims)
		c.Next()
	}
}

// OptionalAuth resolves the user when a valid token is present but never
// rejects the request. Browse and search endpoints use it so anonymous
// visitors and signed-in customers share the same routes.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := claimsFromHeader(c); ok {
			setUserContext(c, claims)
		}
		c.Next()
	}
}

// StaffRequired admits admins, moderators and customer service.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleStr, _ := utils.GetUserRoleFromContext(c)
		for _, staff := range models.StaffRoles {
			if roleStr == string(staff) {
				c.Next()
				return
			}
		}
		utils.ForbiddenResponse(c, "Staff access required")
		c.Abort()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleStr, ok := utils.GetUserRoleFromContext(c)
		if !ok || roleStr != string(models.RoleAdmin) {
			utils.ForbiddenResponse(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func claimsFromHeader(c *gin.Context) (*utils.JWTClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := utils.ValidateJWT(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setUserContext(c *gin.Context, claims *utils.JWTClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("user_role", claims.Role)
}
