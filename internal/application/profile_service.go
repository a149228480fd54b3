package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-locator/internal/domain/entity"
	repo "github.com/oksasatya/go-event-locator/internal/domain/repository"
	"github.com/oksasatya/go-event-locator/pkg/helpers"
	"github.com/oksasatya/go-event-locator/pkg/validation"
)

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// ProfileMode is resolved once per request from the requester and the optional target.
type ProfileMode string

const (
	ModeSelf  ProfileMode = "self"
	ModeOther ProfileMode = "other"
)

type ProfileStatus string

const (
	ProfileViewed    ProfileStatus = "viewed"
	ProfileUpdated   ProfileStatus = "updated"
	ProfileInvalid   ProfileStatus = "invalid"
	ProfileForbidden ProfileStatus = "forbidden"
	ProfileNotFound  ProfileStatus = "not_found"
)

// ProfileEditRequest is the submitted subset of the profile form. Nil fields
// keep their stored value; AvatarURL only changes when Avatar is set.
type ProfileEditRequest struct {
	Name     *string       `json:"name" form:"name" validate:"omitempty,max=100"`
	Bio      *string       `json:"bio" form:"bio" validate:"omitempty,max=500"`
	Location *string       `json:"location" form:"location" validate:"omitempty,max=100"`
	Avatar   *AvatarUpload `json:"-" form:"-" validate:"-"`
}

func (r *ProfileEditRequest) normalize() {
	for _, f := range []*string{r.Name, r.Bio, r.Location} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// merge overlays the submitted fields on the stored ones.
func (r *ProfileEditRequest) merge(cur entity.ProfileFields) entity.ProfileFields {
	if r.Name != nil {
		cur.Name = *r.Name
	}
	if r.Bio != nil {
		cur.Bio = *r.Bio
	}
	if r.Location != nil {
		cur.Location = *r.Location
	}
	return cur
}

// ProfileForm is the editable form shown on the caller's own profile.
type ProfileForm struct {
	Name      string                 `json:"name"`
	Bio       string                 `json:"bio"`
	Location  string                 `json:"location"`
	AvatarURL string                 `json:"avatar_url"`
	Errors    validation.FieldErrors `json:"errors,omitempty"`
}

// ProfileView is the context handed to the presentation layer.
type ProfileView struct {
	ProfileUser     *entity.User
	Form            *ProfileForm
	EventsCreated   []entity.EventSummary
	EventsAttending []entity.EventSummary
	FavoriteEvents  []entity.EventSummary
	IsOwnProfile    bool
}

// ProfileOutcome is the structured result of one profile request.
type ProfileOutcome struct {
	Status      ProfileStatus
	Mode        ProfileMode
	NextStep    NextStep
	View        *ProfileView
	User        *entity.User
	FieldErrors validation.FieldErrors
}

// ProfileService resolves, displays and edits account profiles.
type ProfileService struct {
	Users          repo.UserRepository
	Events         repo.EventRelationRepository
	Avatars        AvatarStore
	Indexer        ProfileIndexer
	Sessions       ProfileSessionSync
	Logger         *logrus.Logger
	AvatarMaxBytes int64
}

func NewProfileService(users repo.UserRepository, events repo.EventRelationRepository, avatars AvatarStore, indexer ProfileIndexer, sessions ProfileSessionSync, logger *logrus.Logger, avatarMaxBytes int64) *ProfileService {
	return &ProfileService{
		Users:          users,
		Events:         events,
		Avatars:        avatars,
		Indexer:        indexer,
		Sessions:       sessions,
		Logger:         logger,
		AvatarMaxBytes: avatarMaxBytes,
	}
}

// ResolveMode picks self mode when no target is given or the target names the requester.
func ResolveMode(requester *Identity, target string) ProfileMode {
	target = strings.TrimSpace(target)
	if target == "" || strings.EqualFold(target, requester.Username) {
		return ModeSelf
	}
	return ModeOther
}

// ViewOrEdit handles one profile request. requester nil means anonymous.
func (s *ProfileService) ViewOrEdit(ctx context.Context, requester *Identity, target string, edit *ProfileEditRequest) (*ProfileOutcome, error) {
	if requester == nil || requester.UserID == "" {
		return nil, ErrUnauthorized
	}
	mode := ResolveMode(requester, target)

	out, err := s.handle(ctx, mode, requester, strings.TrimSpace(target), edit)
	if err != nil {
		return nil, err
	}
	out.Mode = mode
	helpers.ProfileRequestsTotal.WithLabelValues(string(mode), string(out.Status)).Inc()
	return out, nil
}

func (s *ProfileService) handle(ctx context.Context, mode ProfileMode, requester *Identity, target string, edit *ProfileEditRequest) (*ProfileOutcome, error) {
	switch mode {
	case ModeSelf:
		u, err := s.Users.GetByID(ctx, requester.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				// session outlived its account
				return nil, ErrUnauthorized
			}
			return nil, err
		}
		if edit != nil {
			return s.applyEdit(ctx, u, edit)
		}
		view, err := s.buildView(ctx, u, formFrom(u), true)
		if err != nil {
			return nil, err
		}
		return &ProfileOutcome{Status: ProfileViewed, View: view, User: u}, nil

	default:
		u, err := s.Users.GetByUsername(ctx, target)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return &ProfileOutcome{Status: ProfileNotFound}, nil
			}
			return nil, err
		}
		view, err := s.buildView(ctx, u, nil, false)
		if err != nil {
			return nil, err
		}
		if edit != nil {
			return &ProfileOutcome{Status: ProfileForbidden, View: view, User: u}, nil
		}
		return &ProfileOutcome{Status: ProfileViewed, View: view, User: u}, nil
	}
}

func (s *ProfileService) applyEdit(ctx context.Context, u *entity.User, edit *ProfileEditRequest) (*ProfileOutcome, error) {
	edit.normalize()

	errs := validation.FieldErrors{}
	errs.Merge(validation.Struct(edit))
	if edit.Avatar != nil {
		s.checkAvatar(edit.Avatar, errs)
	}
	if !errs.Empty() {
		entered := edit.merge(u.Profile())
		form := &ProfileForm{Name: entered.Name, Bio: entered.Bio, Location: entered.Location, AvatarURL: u.AvatarURL, Errors: errs}
		view, err := s.buildView(ctx, u, form, true)
		if err != nil {
			return nil, err
		}
		return &ProfileOutcome{Status: ProfileInvalid, NextStep: NextRedisplay, View: view, User: u, FieldErrors: errs}, nil
	}

	fields := edit.merge(u.Profile())
	if edit.Avatar != nil {
		url, err := s.Avatars.Upload(ctx, u.ID, *edit.Avatar)
		if err != nil {
			return nil, fmt.Errorf("upload avatar: %w", err)
		}
		fields.AvatarURL = url
	}

	updated, err := s.Users.UpdateProfile(ctx, u.ID, fields)
	if err != nil {
		return nil, err
	}

	if s.Sessions != nil {
		s.Sessions.SyncProfile(ctx, updated)
	}
	if s.Indexer != nil {
		if err := s.Indexer.Index(ctx, updated); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", updated.ID).Warn("profile index failed")
		}
	}
	return &ProfileOutcome{Status: ProfileUpdated, NextStep: NextProfile, User: updated}, nil
}

func (s *ProfileService) checkAvatar(a *AvatarUpload, errs validation.FieldErrors) {
	if s.Avatars == nil {
		errs.Add("avatar", "uploads are not available")
		return
	}
	if !allowedAvatarTypes[strings.ToLower(a.ContentType)] {
		errs.Add("avatar", "must be a PNG, JPEG, GIF or WebP image")
		return
	}
	if s.AvatarMaxBytes > 0 && a.Size > s.AvatarMaxBytes {
		errs.Add("avatar", fmt.Sprintf("must be at most %d bytes", s.AvatarMaxBytes))
	}
}

// buildView aggregates the target's relationship sets fresh from storage.
func (s *ProfileService) buildView(ctx context.Context, u *entity.User, form *ProfileForm, own bool) (*ProfileView, error) {
	rel, err := s.relationships(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{
		ProfileUser:     u,
		Form:            form,
		EventsCreated:   rel.EventsCreated,
		EventsAttending: rel.EventsAttending,
		FavoriteEvents:  rel.FavoriteEvents,
		IsOwnProfile:    own,
	}, nil
}

func (s *ProfileService) relationships(ctx context.Context, userID string) (entity.Relationships, error) {
	created, err := s.Events.EventsCreated(ctx, userID)
	if err != nil {
		return entity.Relationships{}, err
	}
	attending, err := s.Events.EventsAttending(ctx, userID)
	if err != nil {
		return entity.Relationships{}, err
	}
	favorites, err := s.Events.FavoriteEvents(ctx, userID)
	if err != nil {
		return entity.Relationships{}, err
	}
	return entity.NewRelationships(created, attending, favorites), nil
}

// SearchProfiles queries the profile index. Requires an authenticated caller.
func (s *ProfileService) SearchProfiles(ctx context.Context, requester *Identity, q string, size int) ([]map[string]any, error) {
	if requester == nil || requester.UserID == "" {
		return nil, ErrUnauthorized
	}
	if s.Indexer == nil {
		return []map[string]any{}, nil
	}
	return s.Indexer.Search(ctx, strings.TrimSpace(q), size)
}

func formFrom(u *entity.User) *ProfileForm {
	return &ProfileForm{Name: u.Name, Bio: u.Bio, Location: u.Location, AvatarURL: u.AvatarURL}
}
