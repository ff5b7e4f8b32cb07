package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dinetap/table-service/utils"
)

// AuthMiddleware memvalidasi bearer token staff dan menaruh user_id/role di
// context. Penerbitan & manajemen akun adalah collaborator eksternal.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, utils.NewUnauthorizedError("authorization header missing"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.RespondError(c, utils.NewUnauthorizedError("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRoles membatasi handler untuk role tertentu.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		utils.RespondError(c, utils.NewForbiddenError("you do not have permission for this action"))
		c.Abort()
	}
}
