package application

import "errors"

var (
	// ErrUnauthorized means the flow was invoked without an authenticated identity.
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	// ErrNotificationDelivery wraps a failure of the notification channel.
	ErrNotificationDelivery = errors.New("notification delivery failed")
)

// NextStep tells the transport layer where to send the caller next.
type NextStep string

const (
	// NextProfile redirects to the caller's own profile.
	NextProfile NextStep = "profile"
	// NextRedisplay shows the submitted form again with its errors.
	NextRedisplay NextStep = "redisplay"
	// NextLogin sends the caller to the authentication entry point.
	NextLogin NextStep = "login"
)
