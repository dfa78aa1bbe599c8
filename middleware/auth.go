package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/LovationAdmin/trainer-api/services"
	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "pt_session"
	sessionContextKey = "session"
)

// Authenticator verifies and re-signs session tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Session, error)
	Refresh(s *services.Session) (string, *services.Session, error)
}

// CookieOptions controls how the session cookie is written.
type CookieOptions struct {
	Secure bool
}

func SetSessionCookie(c *gin.Context, token string, expiresAt time.Time, opts CookieOptions) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", opts.Secure, true)
}

func ClearSessionCookie(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", opts.Secure, true)
}

// AuthMiddleware rejects requests without a live session and slides the
// session window forward on every authenticated request.
func AuthMiddleware(auth Authenticator, opts CookieOptions) gin.HandlerFunc {
	return sessionMiddleware(auth, opts, true)
}

// RequireSession rejects requests without a live session but leaves the
// cookie alone, for handlers that clear or replace it themselves.
func RequireSession(auth Authenticator, opts CookieOptions) gin.HandlerFunc {
	return sessionMiddleware(auth, opts, false)
}

func sessionMiddleware(auth Authenticator, opts CookieOptions, refresh bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			message := "invalid session"
			if errors.Is(err, utils.ErrSessionExpired) {
				message = "session expired"
			} else if !errors.Is(err, utils.ErrInvalidSession) {
				utils.SafeError("Session lookup failed: %v", err)
			}
			ClearSessionCookie(c, opts)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		if refresh {
			if fresh, refreshed, err := auth.Refresh(session); err == nil {
				SetSessionCookie(c, fresh, refreshed.ExpiresAt, opts)
				session = refreshed
			} else {
				utils.SafeWarn("Session refresh failed: %v", err)
			}
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// GetSession returns the session set by AuthMiddleware, or nil.
func GetSession(c *gin.Context) *services.Session {
	v, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	s, _ := v.(*services.Session)
	return s
}
