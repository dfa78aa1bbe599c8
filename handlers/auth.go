package handlers

import (
	"errors"
	"net/http"

	"github.com/LovationAdmin/trainer-api/middleware"
	"github.com/LovationAdmin/trainer-api/models"
	"github.com/LovationAdmin/trainer-api/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Auth   *services.AuthService
	Cookie middleware.CookieOptions
}

func NewAuthHandler(auth *services.AuthService, cookie middleware.CookieOptions) *AuthHandler {
	RegisterValidators()
	return &AuthHandler{Auth: auth, Cookie: cookie}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, session, err := h.Auth.Login(req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		abortError(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetSessionCookie(c, token, session.ExpiresAt, h.Cookie)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "expires_at": session.ExpiresAt})
}

// Logout runs behind RequireSession so the session is already verified and
// the only session cookie written is the cleared one.
func (h *AuthHandler) Logout(c *gin.Context) {
	if session := middleware.GetSession(c); session != nil {
		if err := h.Auth.Logout(c.Request.Context(), session); err != nil {
			respondError(c, err)
			return
		}
	}
	middleware.ClearSessionCookie(c, h.Cookie)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AuthHandler) Session(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		abortError(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	c.JSON(http.StatusOK, models.SessionInfo{
		Authenticated: true,
		Username:      session.Username,
		ExpiresAt:     session.ExpiresAt,
	})
}
