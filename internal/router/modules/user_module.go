package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-event-locator/internal/container"
	handlers "github.com/oksasatya/go-event-locator/internal/interface/http"
	"github.com/oksasatya/go-event-locator/internal/interface/middleware"
)

// UserModule wires session and profile handlers into routes
// Public: POST /api/login, POST /api/refresh, POST /api/logout
// Profile: GET|PUT /api/profile, GET|PUT /api/profile/:username (anonymous callers get 401 from the flow)
// Protected: GET /api/users/search
type UserModule struct {
	Handler  *handlers.UserHandler
	Sessions middleware.SessionResolver
}

func NewUserModule(h *handlers.UserHandler, sessions middleware.SessionResolver) *UserModule {
	return &UserModule{Handler: h, Sessions: sessions}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/logout", middleware.OptionalAuth(m.Sessions), m.Handler.Logout)

	profile := rg.Group("/profile")
	profile.Use(
		middleware.OptionalAuth(m.Sessions),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		profile.GET("", m.Handler.GetProfile)
		profile.PUT("", m.Handler.UpdateProfile)
		profile.GET("/:username", m.Handler.GetProfile)
		profile.PUT("/:username", m.Handler.UpdateProfile)
	}

	auth := rg.Group("/users")
	auth.Use(
		middleware.Auth(m.Sessions),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/search", m.Handler.SearchUsers)
	}
}
