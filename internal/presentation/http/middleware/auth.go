package middleware

import (
	"strings"

	"github.com/echohealthcare/mvps-pos/internal/presentation/http/dto/response"
	"github.com/echohealthcare/mvps-pos/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
// Roles that may operate a register.
const (
	RoleCashier    = "cashier"
	RoleSupervisor = "supervisor"
)

const (
	ContextOperatorID    = "operator_id"
	ContextOperatorName  = "operator_name"
	ContextOperatorRoles = "operator_roles"
)

// AuthMiddleware creates a JWT authentication middleware for register operators
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextOperatorID, claims.OperatorID)
		c.Set(ContextOperatorName, claims.Name)
		c.Set(ContextOperatorRoles, claims.Roles)

		c.Next()
	}
}

// RequireRole creates a middleware that requires one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, have := range GetOperatorRoles(c) {
			for _, want := range roles {
				if have == want {
					c.Next()
					return
				}
			}
		}
		response.Forbidden(c, "Insufficient role privileges")
		c.Abort()
	}
}

// GetOperatorID returns the authenticated operator's id, or "".
func GetOperatorID(c *gin.Context) string {
	return c.GetString(ContextOperatorID)
}

// GetOperatorName returns the authenticated operator's display name, or "".
func GetOperatorName(c *gin.Context) string {
	return c.GetString(ContextOperatorName)
}

// GetOperatorRoles returns the authenticated operator's roles.
func GetOperatorRoles(c *gin.Context) []string {
	return c.GetStringSlice(ContextOperatorRoles)
}
