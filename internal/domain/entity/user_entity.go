package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Username is the public identifier and never changes once set.
// Password holds a bcrypt hash, never the plain credential.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	Name      string
	Bio       string
	Location  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName falls back to the username when no name was given.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// ProfileFields is the editable field group of a User.
// It is written as one unit so concurrent edits never interleave.
type ProfileFields struct {
	Name      string
	Bio       string
	Location  string
	AvatarURL string
}

// Profile returns the current editable field group.
func (u *User) Profile() ProfileFields {
	return ProfileFields{Name: u.Name, Bio: u.Bio, Location: u.Location, AvatarURL: u.AvatarURL}
}

