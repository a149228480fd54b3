package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-event-locator/config"
	pginfra "github.com/oksasatya/go-event-locator/internal/infrastructure/postgres"
	"github.com/oksasatya/go-event-locator/pkg/helpers"
)

type demoUser struct {
	username, email, name, location string
}

type demoEvent struct {
	title, venue string
	organizer    string
	startsAt     time.Time
}

var demoUsers = []demoUser{
	{"demoUser", "demo@example.com", "Demo User", "Jakarta"},
	{"friendUser", "friend@example.com", "Friend User", "Bandung"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, time.Minute)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	password := "Password123!"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	ids := make([]string, 0, len(demoUsers))
	for _, u := range demoUsers {
		id, err := seedUser(ctx, pool, u, hash)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.username, err)
		}
		ids = append(ids, id)
		fmt.Printf("seeded user: id=%s username=%s password=%s\n", id, u.username, password)
	}
	demoID, friendID := ids[0], ids[1]

	// demo organizes two events, friend organizes one
	start := time.Now().Add(7 * 24 * time.Hour).Truncate(time.Hour)
	events := []demoEvent{
		{"Go Meetup", "Co-working Space", demoID, start},
		{"Open Source Saturday", "City Library", demoID, start.Add(72 * time.Hour)},
		{"Jazz in the Park", "Central Park", friendID, start.Add(24 * time.Hour)},
	}
	eventIDs := make([]string, 0, len(events))
	for _, e := range events {
		id, err := seedEvent(ctx, pool, e)
		if err != nil {
			log.Fatalf("failed to seed event %q: %v", e.title, err)
		}
		eventIDs = append(eventIDs, id)
	}
	fmt.Printf("seeded %d events\n", len(eventIDs))

	// demo attends and favorites the friend's event; friend attends the meetup
	links := []struct{ table, eventID, userID string }{
		{"event_attendees", eventIDs[2], demoID},
		{"event_favorites", eventIDs[2], demoID},
		{"event_attendees", eventIDs[0], friendID},
	}
	for _, l := range links {
		if err := seedLink(ctx, pool, l.table, l.eventID, l.userID); err != nil {
			log.Fatalf("failed to link %s: %v", l.table, err)
		}
	}
	fmt.Println("seeded attendance and favorites")
}

func seedUser(ctx context.Context, db pginfra.DB, u demoUser, hash string) (string, error) {
	var id string
	err := db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, name, location)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lower(username)) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		RETURNING id
	`, u.username, u.email, hash, u.name, u.location).Scan(&id)
	return id, err
}

// seedEvent is keyed on (organizer, title) so reruns reuse the existing row.
func seedEvent(ctx context.Context, db pginfra.DB, e demoEvent) (string, error) {
	var id string
	err := db.QueryRow(ctx, `
		WITH existing AS (
			SELECT id FROM events WHERE organizer_id = $4 AND title = $1 LIMIT 1
		), inserted AS (
			INSERT INTO events (title, venue, starts_at, organizer_id)
			SELECT $1, $2, $3, $4
			WHERE NOT EXISTS (SELECT 1 FROM existing)
			RETURNING id
		)
		SELECT id FROM inserted
		UNION ALL
		SELECT id FROM existing
	`, e.title, e.venue, e.startsAt, e.organizer).Scan(&id)
	return id, err
}

func seedLink(ctx context.Context, db pginfra.DB, table, eventID, userID string) error {
	q := fmt.Sprintf(`INSERT INTO %s (event_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table)
	_, err := db.Exec(ctx, q, eventID, userID)
	return err
}
