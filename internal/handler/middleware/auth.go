package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"groupbuy/internal/domain/user"
	"groupbuy/internal/handler/httperr"
	"groupbuy/internal/pkg/cookie"
	"groupbuy/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	tokenValidator TokenValidator
}

const (
	ctxSessionKey   = "session"
	ctxRequestIDKey = "request_id"
)

func NewAuthMiddleware(tokenValidator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, user.ErrNoSession, "Access token required", nil)
			return
		}

		sess, err := m.session(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid or expired token", nil)
			return
		}

		SetSession(c, sess)
		c.Next()
	}
}

// RequireRole admits the listed roles; admins always pass.
func (m *AuthMiddleware) RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok {
			// Unexpected error: should be used after RequireAuth()
			httperr.AbortWithError(c, http.StatusInternalServerError, user.ErrNoSession, "Internal server error", nil)
			return
		}

		if sess.Role == user.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if sess.Role == r {
				c.Next()
				return
			}
		}
		httperr.AbortWithError(c, http.StatusForbidden, user.ErrNotMerchant, "Insufficient permissions", nil)
	}
}

// OptionalAuth sets the session when a valid token is present and never aborts.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if sess, err := m.session(token); err == nil {
				SetSession(c, sess)
			}
		}
		c.Next()
	}
}

func (m *AuthMiddleware) session(token string) (user.Session, error) {
	claims, err := m.tokenValidator.ValidateToken(token)
	if err != nil {
		return user.Session{}, err
	}
	return claims.Session()
}

func extractToken(c *gin.Context) string {
	if token := cookie.GetAccessToken(c); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

func SetSession(c *gin.Context, sess user.Session) {
	c.Set(ctxSessionKey, sess)
}

// GetSession returns the caller identity set by RequireAuth or OptionalAuth.
func GetSession(c *gin.Context) (user.Session, bool) {
	v, exists := c.Get(ctxSessionKey)
	if !exists {
		return user.Session{}, false
	}
	sess, ok := v.(user.Session)
	return sess, ok && !sess.IsZero()
}
