package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-event-locator/internal/container"
	handlers "github.com/oksasatya/go-event-locator/internal/interface/http"
	"github.com/oksasatya/go-event-locator/internal/interface/middleware"
)

type EmailModule struct {
	Handler  *handlers.EmailHandler
	Sessions middleware.SessionResolver
}

func NewEmailModule(h *handlers.EmailHandler, sessions middleware.SessionResolver) *EmailModule {
	return &EmailModule{Handler: h, Sessions: sessions}
}

func (m *EmailModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/notifications")
	auth.Use(middleware.Auth(m.Sessions))
	auth.Use(middleware.RateLimit(container.GetRedis(), 3, time.Hour, middleware.KeyByUserID(), nil))
	{
		auth.POST("/welcome", m.Handler.ResendWelcome)
	}
}
