package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-event-locator/internal/application"
	"github.com/oksasatya/go-event-locator/pkg/helpers"
	"github.com/oksasatya/go-event-locator/pkg/response"
)

const (
	CtxUserIDKey   = "userID"
	CtxUsernameKey = "username"
	ctxIdentityKey = "identity"
)

// SessionResolver turns an access token into the caller identity.
// *application.SessionService satisfies it.
type SessionResolver interface {
	Resolve(ctx context.Context, accessToken string) (*application.Identity, error)
}

func resolve(c *gin.Context, sessions SessionResolver) (*application.Identity, error) {
	token, err := c.Cookie(helpers.AccessCookie)
	if err != nil || token == "" {
		return nil, application.ErrUnauthorized
	}
	return sessions.Resolve(c.Request.Context(), token)
}

func setIdentity(c *gin.Context, id *application.Identity) {
	c.Set(ctxIdentityKey, id)
	c.Set(CtxUserIDKey, id.UserID)
	c.Set(CtxUsernameKey, id.Username)
}

// Auth requires a live session. It sets userID, username and the identity in the Gin context.
func Auth(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolve(c, sessions)
		if err != nil {
			if errors.Is(err, application.ErrUnauthorized) {
				response.Abort(c, http.StatusUnauthorized, "authentication required", gin.H{"redirect": "/api/login"})
				return
			}
			response.Abort(c, http.StatusServiceUnavailable, "session store unavailable", nil)
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth attaches the identity when the request carries a live session
// and lets anonymous requests through; the handler decides what they may see.
// A session store failure still aborts with 503.
func OptionalAuth(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolve(c, sessions)
		switch {
		case err == nil:
			setIdentity(c, id)
		case !errors.Is(err, application.ErrUnauthorized):
			response.Abort(c, http.StatusServiceUnavailable, "session store unavailable", nil)
			return
		}
		c.Next()
	}
}

// Identity returns the caller identity set by Auth or OptionalAuth, or nil.
func Identity(c *gin.Context) *application.Identity {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*application.Identity)
	return id
}
