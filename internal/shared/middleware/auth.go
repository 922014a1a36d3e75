package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"restaurant-backend/internal/shared/auth"
	pkgjwt "restaurant-backend/pkg/jwt"
)

const (
	ContextUserID      = "userID"
	ContextRole        = "role"
	ContextAuthContext = "authContext"
)

// AuthMiddleware xác thực JWT token và set identity vào gin context.
// Handler lấy auth.Context ra và truyền tường minh xuống service.
func AuthMiddleware(manager *pkgjwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(401, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := manager.ParseAccessToken(parts[1])
		if err != nil {
			c.JSON(401, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextAuthContext, auth.NewContext(claims.UserID, claims.Role))

		c.Next()
	}
}

// RequirePermission chặn request khi auth.Context không có permission yêu cầu
func RequirePermission(p auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(ContextAuthContext)
		if !exists {
			c.JSON(403, gin.H{"error": "access denied"})
			c.Abort()
			return
		}

		authCtx, ok := v.(*auth.Context)
		if !ok || !authCtx.Has(p) {
			c.JSON(403, gin.H{"error": "access denied"})
			c.Abort()
			return
		}

		c.Next()
	}
}
