package routes

import (
	"net/http"
	"time"

	"github.com/LovationAdmin/trainer-api/config"
	"github.com/LovationAdmin/trainer-api/handlers"
	"github.com/LovationAdmin/trainer-api/middleware"
	"github.com/LovationAdmin/trainer-api/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

// Dependencies are the long-lived components the router wires together.
type Dependencies struct {
	Settings *config.Settings
	Clients  handlers.ClientStore
	Auth     *services.AuthService
	WS       *handlers.WSHandler
}

// NewRouter builds the engine with CORS, logging, rate limiting and every
// route group.
func NewRouter(d Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.Settings.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimiter(d.Settings.RateLimit))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": Version,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	cookie := middleware.CookieOptions{Secure: d.Settings.CookieSecure}
	authHandler := handlers.NewAuthHandler(d.Auth, cookie)
	SetupAuthRoutes(router.Group("/"), authHandler)
	SetupLogoutRoutes(router.Group("/", middleware.RequireSession(d.Auth, cookie)), authHandler)

	var notifier handlers.ChangeNotifier
	if d.WS != nil {
		notifier = d.WS
	}

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(d.Auth, cookie))
	{
		SetupSessionRoutes(protected, authHandler)
		SetupAPIRoutes(protected, handlers.NewAPIHandler(d.Clients, notifier, d.Settings.RevenueTarget))
		if d.WS != nil {
			protected.GET("/ws", d.WS.HandleWS)
		}
	}

	return router
}

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	rg.POST("/auth/login", h.Login)
}

// SetupLogoutRoutes sets up logout. The group must verify the session
// without refreshing the cookie.
func SetupLogoutRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	rg.POST("/auth/logout", h.Logout)
}

// SetupSessionRoutes sets up routes that need a live session.
func SetupSessionRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	rg.GET("/auth/session", h.Session)
}

// SetupAPIRoutes mounts the action dispatcher. The action table decides
// which method each action accepts.
func SetupAPIRoutes(rg *gin.RouterGroup, h *handlers.APIHandler) {
	rg.GET("/api", h.Dispatch)
	rg.POST("/api", h.Dispatch)
}
