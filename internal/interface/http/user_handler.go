package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-locator/internal/application"
	"github.com/oksasatya/go-event-locator/internal/domain/entity"
	"github.com/oksasatya/go-event-locator/internal/interface/middleware"
	"github.com/oksasatya/go-event-locator/pkg/helpers"
	"github.com/oksasatya/go-event-locator/pkg/response"
	"github.com/oksasatya/go-event-locator/pkg/validation"
)

// Sessions is the session authority as seen by the transport.
type Sessions interface {
	Login(ctx context.Context, username, password string) (*entity.User, application.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (application.TokenPair, string, error)
	Revoke(ctx context.Context, userID string) error
}

// Profiles is the profile flow as seen by the transport.
type Profiles interface {
	ViewOrEdit(ctx context.Context, requester *application.Identity, target string, edit *application.ProfileEditRequest) (*application.ProfileOutcome, error)
	SearchProfiles(ctx context.Context, requester *application.Identity, q string, size int) ([]map[string]any, error)
}

type UserHandler struct {
	Sessions Sessions
	Profiles Profiles
	Logger   *logrus.Logger
	Cookies  *helpers.Manager
}

func NewUserHandler(sessions Sessions, profiles Profiles, logger *logrus.Logger, cookies *helpers.Manager) *UserHandler {
	return &UserHandler{Sessions: sessions, Profiles: profiles, Logger: logger, Cookies: cookies}
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Sessions.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		h.fail(c, "login failed", err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, toPrivateUserDTO(u), "login successful", gin.H{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

func (h *UserHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Sessions.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", gin.H{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if id := middleware.Identity(c); id != nil {
		if err := h.Sessions.Revoke(c.Request.Context(), id.UserID); err != nil && h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", id.UserID).Warn("session revoke failed")
		}
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// GetProfile serves GET /profile and GET /profile/:username.
func (h *UserHandler) GetProfile(c *gin.Context) {
	out, err := h.Profiles.ViewOrEdit(c.Request.Context(), middleware.Identity(c), c.Param("username"), nil)
	h.respondProfile(c, out, err)
}

// UpdateProfile serves PUT /profile and PUT /profile/:username.
// It accepts JSON, or multipart with an optional "avatar" file.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var edit application.ProfileEditRequest
	if err := c.ShouldBind(&edit); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	if fh, err := c.FormFile("avatar"); err == nil {
		f, err := fh.Open()
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid avatar upload", nil)
			return
		}
		defer func() { _ = f.Close() }()
		edit.Avatar = avatarFrom(fh, f)
	}

	out, err := h.Profiles.ViewOrEdit(c.Request.Context(), middleware.Identity(c), c.Param("username"), &edit)
	h.respondProfile(c, out, err)
}

func avatarFrom(fh *multipart.FileHeader, f multipart.File) *application.AvatarUpload {
	return &application.AvatarUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
}

func (h *UserHandler) respondProfile(c *gin.Context, out *application.ProfileOutcome, err error) {
	if err != nil {
		if errors.Is(err, application.ErrUnauthorized) {
			response.ErrorWithData[any](c, http.StatusUnauthorized, "authentication required", nil, gin.H{
				"next":     application.NextLogin,
				"redirect": "/api/login",
			})
			return
		}
		h.fail(c, "profile request failed", err)
		return
	}

	meta := gin.H{"mode": out.Mode}
	switch out.Status {
	case application.ProfileNotFound:
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case application.ProfileForbidden:
		response.ErrorWithData[any](c, http.StatusForbidden, "you can only edit your own profile", nil, toProfileDTO(out.View))
	case application.ProfileInvalid:
		response.ErrorWithData[any](c, http.StatusUnprocessableEntity, "validation failed", out.FieldErrors, gin.H{
			"next":    out.NextStep,
			"profile": toProfileDTO(out.View),
		})
	case application.ProfileUpdated:
		meta["next"] = out.NextStep
		meta["redirect"] = "/api/profile"
		response.Success(c, http.StatusOK, toPrivateUserDTO(out.User), "profile updated", meta)
	default:
		response.Success(c, http.StatusOK, toProfileDTO(out.View), "profile", meta)
	}
}

// SearchUsers serves GET /users/search?q=&size=.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Profiles.SearchProfiles(c.Request.Context(), middleware.Identity(c), c.Query("q"), size)
	if err != nil {
		if errors.Is(err, application.ErrUnauthorized) {
			response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		h.fail(c, "search failed", err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

func (h *UserHandler) fail(c *gin.Context, msg string, err error) {
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("path", c.FullPath()).Error(msg)
	}
	response.Error[any](c, http.StatusInternalServerError, msg, nil)
}
