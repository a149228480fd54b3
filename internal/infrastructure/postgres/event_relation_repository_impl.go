package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/oksasatya/go-event-locator/internal/domain/entity"
	"github.com/oksasatya/go-event-locator/internal/domain/repository"
)

const (
	eventsCreatedQuery = `
		SELECT e.id, e.title, e.venue, e.starts_at, e.organizer_id
		FROM events e
		WHERE e.organizer_id = $1
		ORDER BY e.starts_at`

	eventsAttendingQuery = `
		SELECT e.id, e.title, e.venue, e.starts_at, e.organizer_id
		FROM events e
		JOIN event_attendees a ON a.event_id = e.id
		WHERE a.user_id = $1
		ORDER BY e.starts_at`

	favoriteEventsQuery = `
		SELECT e.id, e.title, e.venue, e.starts_at, e.organizer_id
		FROM events e
		JOIN event_favorites f ON f.event_id = e.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`
)

type EventRelationRepository struct {
	db DB
}

func NewEventRelationRepository(db DB) *EventRelationRepository {
	return &EventRelationRepository{db: db}
}

func (r *EventRelationRepository) EventsCreated(ctx context.Context, userID string) ([]entity.EventSummary, error) {
	return r.list(ctx, "events created", eventsCreatedQuery, userID)
}

func (r *EventRelationRepository) EventsAttending(ctx context.Context, userID string) ([]entity.EventSummary, error) {
	return r.list(ctx, "events attending", eventsAttendingQuery, userID)
}

func (r *EventRelationRepository) FavoriteEvents(ctx context.Context, userID string) ([]entity.EventSummary, error) {
	return r.list(ctx, "favorite events", favoriteEventsQuery, userID)
}

func (r *EventRelationRepository) list(ctx context.Context, op, query, userID string) ([]entity.EventSummary, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, oops.Code("EVENT_RELATION_QUERY_FAILED").With("operation", op).With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	out := []entity.EventSummary{}
	for rows.Next() {
		var e entity.EventSummary
		if err := rows.Scan(&e.ID, &e.Title, &e.Venue, &e.StartsAt, &e.OrganizerID); err != nil {
			return nil, oops.Code("EVENT_RELATION_SCAN_FAILED").With("operation", op).Wrap(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("EVENT_RELATION_ITERATE_FAILED").With("operation", op).Wrap(err)
	}
	return out, nil
}

var _ repository.EventRelationRepository = (*EventRelationRepository)(nil)
