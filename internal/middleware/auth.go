package middleware

import (
	"net/http"
	"strings"

	"practice-journal-api/internal/response"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

// AccessTokenValidator resolves an access token to a user id.
type AccessTokenValidator interface {
	ValidateAccess(token string) (uint, error)
}

// JWTAuth requires an "Authorization: Bearer <access token>" header
func JWTAuth(tokens AccessTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication credentials were not provided"))
			return
		}

		userID, err := tokens.ValidateAccess(strings.TrimSpace(token))
		if err != nil {
			response.AbortError(c, err)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the id set by JWTAuth.
func UserID(c *gin.Context) uint {
	return c.GetUint(UserIDKey)
}
