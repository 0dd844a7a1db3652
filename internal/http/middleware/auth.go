package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/platform/ctxutil"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/services"
)

// SessionCookie carries the access token for the server-rendered admin pages.
const SessionCookie = "session"

// AdminLoginPath is where HTML requests without a usable session land.
const AdminLoginPath = "/admin"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// Resolve attaches the caller behind the request's token, if any. It never
// aborts the request.
func (am *AuthMiddleware) Resolve(c *gin.Context) (*ctxutil.RequestData, bool) {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd, true
	}
	tokenString := extractToken(c)
	if tokenString == "" {
		return nil, false
	}
	ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
	if err != nil {
		am.log.Debug("Rejected token", append(ctxutil.LogFields(c.Request.Context()), "error", err)...)
		return nil, false
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, false
	}
	c.Request = c.Request.WithContext(ctx)
	return rd, true
}

// OptionalAuth attaches the caller when the token is valid and lets
// anonymous requests through.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		am.Resolve(c)
		c.Next()
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := am.Resolve(c); !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		c.Next()
	}
}

// RequireAdmin authenticates the caller and requires the admin flag.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd, ok := am.Resolve(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		if !rd.IsAdmin {
			abortJSON(c, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		c.Next()
	}
}

// RequireAdminPage is RequireAdmin for HTML routes: a missing, expired or
// non-admin session is sent back to the login page.
func (am *AuthMiddleware) RequireAdminPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd, ok := am.Resolve(c)
		if !ok || !rd.IsAdmin {
			ClearSession(c)
			c.Redirect(http.StatusSeeOther, AdminLoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetSession stores an access token in the session cookie.
func SetSession(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", c.Request.TLS != nil, true)
}

func ClearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
}

func abortJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"message": message, "code": code},
	})
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
