package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LovationAdmin/trainer-api/middleware"
	"github.com/LovationAdmin/trainer-api/services"
	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	hash, err := utils.HashPassword("s3cret-pass")
	require.NoError(t, err)

	auth := services.NewAuthService("coach", hash, []byte("0123456789abcdef0123456789abcdef"),
		4*time.Hour, services.NewMemorySessionStore())
	h := NewAuthHandler(auth, middleware.CookieOptions{})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", middleware.RequireSession(auth, h.Cookie), h.Logout)
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(auth, h.Cookie))
	protected.GET("/auth/session", h.Session)
	return r
}

func sessionCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			out = append(out, c)
		}
	}
	return out
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	if cookies := sessionCookies(w); len(cookies) > 0 {
		return cookies[0]
	}
	return nil
}

func TestLogin_Failures(t *testing.T) {
	r := newAuthRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing password", `{"username":"coach"}`, http.StatusBadRequest},
		{"wrong password", `{"username":"coach","password":"nope"}`, http.StatusUnauthorized},
		{"wrong user", `{"username":"admin","password":"s3cret-pass"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Nil(t, sessionCookie(w))
		})
	}
}

func TestLoginSessionLogout(t *testing.T) {
	r := newAuthRouter(t)

	w := do(r, http.MethodPost, "/auth/login", `{"username":"coach","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "coach", decode(t, w)["username"])

	req = httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(""))
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := sessionCookies(w)
	require.Len(t, cleared, 1, "logout must not re-sign the session")
	assert.Empty(t, cleared[0].Value)
	assert.Negative(t, cleared[0].MaxAge)

	// the old cookie is revoked even though its token has not expired
	req = httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSession_WithoutCookie(t *testing.T) {
	r := newAuthRouter(t)
	w := do(r, http.MethodGet, "/auth/session", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
