package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/practicelog/internal/app/models/dto"
	"github.com/yigit/practicelog/internal/pkg/auth"
)

// Context keys set by SessionAuth
const (
	ContextMemberID   = "memberID"
	ContextMemberName = "memberName"
)

// SessionValidator validates session tokens
type SessionValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AuthMiddleware authenticates members by their session token
type AuthMiddleware struct {
	sessions   SessionValidator
	cookieName string
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(sessions SessionValidator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:   sessions,
		cookieName: cookieName,
	}
}

// SessionAuth reads the session cookie, falling back to the Authorization header
func (m *AuthMiddleware) SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(m.cookieName)
		if err != nil || token == "" {
			token, err = auth.ExtractBearerToken(c.GetHeader("Authorization"))
			if err != nil {
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
					WithDetails("Session cookie or Authorization header missing")
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
				return
			}
		}

		claims, err := m.sessions.Validate(token)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		c.Set(ContextMemberID, claims.MemberID)
		c.Set(ContextMemberName, claims.MemberName)
		c.Next()
	}
}
