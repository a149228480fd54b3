package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-locator/config"
	"github.com/oksasatya/go-event-locator/internal/domain/entity"
	repo "github.com/oksasatya/go-event-locator/internal/domain/repository"
	"github.com/oksasatya/go-event-locator/pkg/helpers"
	mailtpl "github.com/oksasatya/go-event-locator/pkg/mailer/templates"
	"github.com/oksasatya/go-event-locator/pkg/validation"
)

const msgUsernameTaken = "is already taken"

// RegistrationRequest is the submitted sign-up form.
type RegistrationRequest struct {
	Username        string `json:"username" form:"username" validate:"required,min=3,max=30,username"`
	Email           string `json:"email" form:"email" validate:"required,email,max=254"`
	Password        string `json:"password,omitempty" form:"password" validate:"required,strongpwd"`
	PasswordConfirm string `json:"password_confirm,omitempty" form:"password_confirm" validate:"required,eqfield=Password"`
	Name            string `json:"name" form:"name" validate:"max=100"`
}

func (r *RegistrationRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

// Redacted returns the entered values without the credential, for redisplay.
func (r RegistrationRequest) Redacted() RegistrationRequest {
	r.Password = ""
	r.PasswordConfirm = ""
	return r
}

type RegistrationStatus string

const (
	RegistrationCreated  RegistrationStatus = "created"
	RegistrationInvalid  RegistrationStatus = "invalid"
	RegistrationConflict RegistrationStatus = "conflict"
)

// RegistrationOutcome is the structured result of one registration attempt.
type RegistrationOutcome struct {
	Status   RegistrationStatus
	NextStep NextStep

	// Created
	User          *entity.User
	Session       TokenPair
	WelcomeQueued bool

	// Invalid / Conflict
	FieldErrors validation.FieldErrors
	Input       RegistrationRequest
}

// RegistrationService creates accounts: validate, persist, sign in, welcome.
type RegistrationService struct {
	Repo     repo.UserRepository
	Sessions SessionAuthority
	Notifier Notifier
	Indexer  ProfileIndexer
	Cfg      *config.Config
	Logger   *logrus.Logger
}

func NewRegistrationService(repo repo.UserRepository, sessions SessionAuthority, notifier Notifier, indexer ProfileIndexer, cfg *config.Config, logger *logrus.Logger) *RegistrationService {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &RegistrationService{Repo: repo, Sessions: sessions, Notifier: notifier, Indexer: indexer, Cfg: cfg, Logger: logger}
}

// Register runs one registration attempt. Field problems and a lost username
// race come back as outcomes; the error return is reserved for infrastructure failures.
func (s *RegistrationService) Register(ctx context.Context, req RegistrationRequest) (*RegistrationOutcome, error) {
	req.normalize()

	errs := validation.FieldErrors{}
	errs.Merge(validation.Struct(req))
	if _, bad := errs["username"]; !bad {
		// Early feedback only; the unique index on insert is what guarantees uniqueness.
		taken, err := s.Repo.UsernameExists(ctx, req.Username)
		if err != nil {
			helpers.RegistrationsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		if taken {
			errs.Add("username", msgUsernameTaken)
		}
	}
	if !errs.Empty() {
		helpers.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return &RegistrationOutcome{
			Status:      RegistrationInvalid,
			NextStep:    NextRedisplay,
			FieldErrors: errs,
			Input:       req.Redacted(),
		}, nil
	}

	hash, err := helpers.HashPassword(req.Password)
	if err != nil {
		helpers.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
		Name:     req.Name,
	}

	// 1. persist
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) {
			helpers.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return &RegistrationOutcome{
				Status:      RegistrationConflict,
				NextStep:    NextRedisplay,
				FieldErrors: validation.FieldErrors{"username": msgUsernameTaken},
				Input:       req.Redacted(),
			}, nil
		}
		helpers.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	// 2. sign in
	session, err := s.Sessions.Establish(ctx, u)
	if err != nil {
		helpers.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("establish session for %s: %w", u.ID, err)
	}

	// 3. welcome; a delivery failure never undoes 1 and 2
	queued, err := s.dispatchWelcome(ctx, u)
	if err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).
			Warn("welcome notification not dispatched")
	}

	s.index(ctx, u)

	helpers.RegistrationsTotal.WithLabelValues("created").Inc()
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("account registered")
	}
	return &RegistrationOutcome{
		Status:        RegistrationCreated,
		NextStep:      NextProfile,
		User:          u,
		Session:       session,
		WelcomeQueued: queued,
	}, nil
}

// ResendWelcome dispatches the welcome message again for the caller's account.
// It reports false without error when welcome mail is switched off.
func (s *RegistrationService) ResendWelcome(ctx context.Context, who *Identity) (bool, error) {
	if who == nil || who.UserID == "" {
		return false, ErrUnauthorized
	}
	u, err := s.Repo.GetByID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return s.dispatchWelcome(ctx, u)
}

func (s *RegistrationService) welcomeEnabled() bool {
	return s.Notifier != nil && s.Cfg.WelcomeQueueEnabled
}

// dispatchWelcome renders and hands off the welcome message exactly once.
func (s *RegistrationService) dispatchWelcome(ctx context.Context, u *entity.User) (bool, error) {
	if !s.welcomeEnabled() {
		helpers.WelcomeNotificationsTotal.WithLabelValues("disabled").Inc()
		return false, nil
	}
	n, err := ComposeWelcome(s.Cfg, u)
	if err != nil {
		helpers.WelcomeNotificationsTotal.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("%w: %v", ErrNotificationDelivery, err)
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		helpers.WelcomeNotificationsTotal.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("%w: %v", ErrNotificationDelivery, err)
	}
	helpers.WelcomeNotificationsTotal.WithLabelValues("queued").Inc()
	return true, nil
}

func (s *RegistrationService) index(ctx context.Context, u *entity.User) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.Index(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("profile index failed")
	}
}

// ComposeWelcome renders the welcome message for u.
// The body always carries the literal username.
func ComposeWelcome(cfg *config.Config, u *entity.User) (Notification, error) {
	data := mailtpl.NewWelcomeData(cfg, u.Username, u.Email, mailtpl.WithName(u.DisplayName()), mailtpl.WithTime(time.Now()))
	subject, text, html, err := mailtpl.Render(mailtpl.Welcome, data)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Kind:    mailtpl.Welcome,
		Ref:     u.ID,
		To:      u.Email,
		Subject: subject,
		Text:    text,
		HTML:    html,
	}, nil
}
