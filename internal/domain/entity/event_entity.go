package entity

import "time"

// EventSummary is the read-only view of an event shown on profiles.
type EventSummary struct {
	ID          string
	Title       string
	Venue       string
	StartsAt    time.Time
	OrganizerID string
}

// Relationships groups the event sets related to one account.
// The slices are never nil, an account without events has empty sets.
type Relationships struct {
	EventsCreated   []EventSummary
	EventsAttending []EventSummary
	FavoriteEvents  []EventSummary
}

// NewRelationships normalizes nil sets to empty ones.
func NewRelationships(created, attending, favorites []EventSummary) Relationships {
	if created == nil {
		created = []EventSummary{}
	}
	if attending == nil {
		attending = []EventSummary{}
	}
	if favorites == nil {
		favorites = []EventSummary{}
	}
	return Relationships{EventsCreated: created, EventsAttending: attending, FavoriteEvents: favorites}
}
