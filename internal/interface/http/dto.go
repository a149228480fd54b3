package handlers

import (
	"time"

	"github.com/oksasatya/go-event-locator/internal/application"
	"github.com/oksasatya/go-event-locator/internal/domain/entity"
)

type userDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	Location  string    `json:"location"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// privateUserDTO adds the fields only the owner sees.
type privateUserDTO struct {
	userDTO
	Email string `json:"email"`
}

type eventDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	OrganizerID string    `json:"organizer_id"`
}

type profileDTO struct {
	User            any                      `json:"user"`
	Form            *application.ProfileForm `json:"form,omitempty"`
	EventsCreated   []eventDTO               `json:"events_created"`
	EventsAttending []eventDTO               `json:"events_attending"`
	FavoriteEvents  []eventDTO               `json:"favorite_events"`
	IsOwnProfile    bool                     `json:"is_own_profile"`
}

func toUserDTO(u *entity.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Bio:       u.Bio,
		Location:  u.Location,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toPrivateUserDTO(u *entity.User) privateUserDTO {
	return privateUserDTO{userDTO: toUserDTO(u), Email: u.Email}
}

func toEventDTOs(in []entity.EventSummary) []eventDTO {
	out := make([]eventDTO, 0, len(in))
	for _, e := range in {
		out = append(out, eventDTO{ID: e.ID, Title: e.Title, Venue: e.Venue, StartsAt: e.StartsAt, OrganizerID: e.OrganizerID})
	}
	return out
}

func toProfileDTO(v *application.ProfileView) profileDTO {
	var user any = toUserDTO(v.ProfileUser)
	if v.IsOwnProfile {
		user = toPrivateUserDTO(v.ProfileUser)
	}
	return profileDTO{
		User:            user,
		Form:            v.Form,
		EventsCreated:   toEventDTOs(v.EventsCreated),
		EventsAttending: toEventDTOs(v.EventsAttending),
		FavoriteEvents:  toEventDTOs(v.FavoriteEvents),
		IsOwnProfile:    v.IsOwnProfile,
	}
}
