package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-locator/internal/application"
	"github.com/oksasatya/go-event-locator/internal/interface/middleware"
	"github.com/oksasatya/go-event-locator/pkg/response"
)

// WelcomeResender re-dispatches the welcome notification.
type WelcomeResender interface {
	ResendWelcome(ctx context.Context, who *application.Identity) (bool, error)
}

type EmailHandler struct {
	Svc    WelcomeResender
	Logger *logrus.Logger
}

func NewEmailHandler(svc WelcomeResender, logger *logrus.Logger) *EmailHandler {
	return &EmailHandler{Svc: svc, Logger: logger}
}

// ResendWelcome enqueues the welcome email for the caller again.
func (h *EmailHandler) ResendWelcome(c *gin.Context) {
	queued, err := h.Svc.ResendWelcome(c.Request.Context(), middleware.Identity(c))
	switch {
	case err == nil && !queued:
		response.Success[any](c, http.StatusAccepted, gin.H{"enqueued": false, "disabled": true}, "email sending disabled", nil)
	case err == nil:
		response.Success[any](c, http.StatusAccepted, gin.H{"enqueued": true}, "welcome email enqueued", nil)
	case errors.Is(err, application.ErrUnauthorized):
		response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("failed to enqueue welcome email")
		}
		response.Error[any](c, http.StatusBadGateway, "failed to enqueue", nil)
	}
}
