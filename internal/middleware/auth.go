package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/models"
	"github.com/codesurge/hackathon/internal/utils"
	"github.com/codesurge/hackathon/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// tokenQueryParam carries the token for clients that cannot set headers,
// such as the browser EventSource used for the SSE stream.
const tokenQueryParam = "token"

// AuthRequired is a middleware that checks for a valid JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Abort(c, apperr.Unauthorized(apperr.CodeUnauthorized, "Authorization header required"))
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			response.Abort(c, apperr.Unauthorized(apperr.CodeUnauthorized, "Invalid or expired token"))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query(tokenQueryParam); token != "" {
			return token, true
		}
		return "", false
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AdminRequired is a middleware that checks for admin role
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != models.RoleAdmin {
			response.Abort(c, apperr.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// GetUsername gets the current username from context
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

// GetRole gets the current user role from context
func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

// GetPrincipal returns the authenticated caller.
func GetPrincipal(c *gin.Context) models.Principal {
	return models.Principal{
		UserID:   GetUserID(c),
		Username: GetUsername(c),
		Role:     GetRole(c),
	}
}
