package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/response"
	"github.com/sangkips/mesa-api/pkg/utils"
)

// bearerToken reads the token from the Authorization header. EventSource
// cannot set headers, so GET requests may pass it as ?access_token=.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if c.Request.Method == "GET" {
			if token := c.Query("access_token"); token != "" {
				return token, true
			}
		}
		return "", false
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware creates a JWT authentication middleware
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		// Set staff info in context
		c.Set("staff_id", claims.StaffID)
		c.Set("staff_name", claims.Name)
		c.Set("staff_role", claims.Role)

		c.Next()
	}
}

// RequireRole creates a middleware that requires one of the given roles
func RequireRole(roles ...enum.StaffRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("staff_role")
		if !exists {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		staffRole, ok := role.(string)
		if !ok {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		for _, required := range roles {
			if staffRole == string(required) {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "Insufficient role privileges")
		c.Abort()
	}
}
