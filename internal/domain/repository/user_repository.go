package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-event-locator/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned by Create when the username unique constraint rejects the insert.
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository defines the interface for account persistence.
// Create must be atomic with respect to username uniqueness.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, id string, p entity.ProfileFields) (*entity.User, error)
}

// EventRelationRepository reads the event sets related to an account.
// Every call hits storage, results are snapshots owned by the caller.
type EventRelationRepository interface {
	EventsCreated(ctx context.Context, userID string) ([]entity.EventSummary, error)
	EventsAttending(ctx context.Context, userID string) ([]entity.EventSummary, error)
	FavoriteEvents(ctx context.Context, userID string) ([]entity.EventSummary, error)
}
