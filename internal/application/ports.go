package application

import (
	"context"
	"io"
	"time"

	"github.com/oksasatya/go-event-locator/internal/domain/entity"
)

// Identity is the authenticated caller, resolved from the session by the
// auth middleware and passed explicitly into every flow.
type Identity struct {
	UserID   string
	Username string
}

// TokenPair is the credential material handed back to the transport layer.
type TokenPair struct {
	SessionID          string
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// SessionAuthority establishes an authenticated session for an account.
type SessionAuthority interface {
	Establish(ctx context.Context, u *entity.User) (TokenPair, error)
}

// ProfileSessionSync keeps display fields cached in the session fresh after an edit.
type ProfileSessionSync interface {
	SyncProfile(ctx context.Context, u *entity.User)
}

// Notification is a fully rendered message for one recipient.
type Notification struct {
	Kind    string
	Ref     string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier dispatches a notification. Implementations may fail.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// AvatarUpload is an uploaded profile image.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AvatarStore persists avatar images and returns their public URL.
type AvatarStore interface {
	Upload(ctx context.Context, userID string, a AvatarUpload) (string, error)
}

// ProfileIndexer mirrors public profile fields into the search index.
type ProfileIndexer interface {
	Index(ctx context.Context, u *entity.User) error
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}
