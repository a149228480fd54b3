package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-event-locator/internal/container"
	handlers "github.com/oksasatya/go-event-locator/internal/interface/http"
	"github.com/oksasatya/go-event-locator/internal/interface/middleware"
)

// RegistrationModule exposes public sign-up.
// Public: POST /api/register (rate limited per IP)
type RegistrationModule struct {
	Handler   *handlers.RegistrationHandler
	PerMinute int
}

func NewRegistrationModule(h *handlers.RegistrationHandler, perMinute int) *RegistrationModule {
	return &RegistrationModule{Handler: h, PerMinute: perMinute}
}

func (m *RegistrationModule) Register(rg *gin.RouterGroup) {
	limiter := middleware.RateLimit(container.GetRedis(), m.PerMinute, time.Minute, middleware.KeyByIPAndPath(), nil)
	rg.POST("/register", limiter, m.Handler.Register)
}
