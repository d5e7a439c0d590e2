package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/studyhub/core/internal/pkg/jwt"
	"github.com/studyhub/core/internal/pkg/response"
)

const ContextKeyOwnerID = "owner_id"

// Auth rejects requests without a valid bearer token and stores the
// token's owner id in the context.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := ValidateToken(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyOwnerID, claims.OwnerID())
		c.Next()
	}
}

// ValidateToken parses a raw Authorization value and returns its claims.
func ValidateToken(rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}
	return jwt.Parse(token)
}

// CurrentOwnerID extracts the authenticated owner ID from context.
func CurrentOwnerID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyOwnerID)
	id, _ := v.(string)
	return id
}

func IsAuthenticated(c *gin.Context) bool {
	return CurrentOwnerID(c) != ""
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
