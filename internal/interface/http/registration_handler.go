package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-locator/internal/application"
	"github.com/oksasatya/go-event-locator/pkg/helpers"
	"github.com/oksasatya/go-event-locator/pkg/response"
	"github.com/oksasatya/go-event-locator/pkg/validation"
)

// Registrar is the registration flow as seen by the transport.
type Registrar interface {
	Register(ctx context.Context, req application.RegistrationRequest) (*application.RegistrationOutcome, error)
}

type RegistrationHandler struct {
	Svc     Registrar
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewRegistrationHandler(svc Registrar, logger *logrus.Logger, cookies *helpers.Manager) *RegistrationHandler {
	return &RegistrationHandler{Svc: svc, Logger: logger, Cookies: cookies}
}

// Register accepts JSON or form posts.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req application.RegistrationRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	out, err := h.Svc.Register(c.Request.Context(), req)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("registration failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "registration failed", nil)
		return
	}

	switch out.Status {
	case application.RegistrationCreated:
		s := out.Session
		h.Cookies.SetPair(c, s.AccessToken, s.AccessTokenExpiry, s.RefreshToken, s.RefreshTokenExpiry)
		response.Success(c, http.StatusCreated, toPrivateUserDTO(out.User), "account created", gin.H{
			"next":               out.NextStep,
			"redirect":           "/api/profile",
			"welcome_queued":     out.WelcomeQueued,
			"access_expires_at":  s.AccessTokenExpiry,
			"refresh_expires_at": s.RefreshTokenExpiry,
		})
	case application.RegistrationConflict:
		response.ErrorWithData[any](c, http.StatusConflict, "username already taken", out.FieldErrors, redisplay(out))
	default:
		response.ErrorWithData[any](c, http.StatusUnprocessableEntity, "validation failed", out.FieldErrors, redisplay(out))
	}
}

func redisplay(out *application.RegistrationOutcome) gin.H {
	return gin.H{"next": out.NextStep, "input": out.Input}
}
