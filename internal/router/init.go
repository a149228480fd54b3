package router

import (
	"github.com/oksasatya/go-event-locator/internal/application"
	"github.com/oksasatya/go-event-locator/internal/container"
	"github.com/oksasatya/go-event-locator/internal/infrastructure/notify"
	pginfra "github.com/oksasatya/go-event-locator/internal/infrastructure/postgres"
	"github.com/oksasatya/go-event-locator/internal/infrastructure/search"
	"github.com/oksasatya/go-event-locator/internal/infrastructure/storage"
	handlers "github.com/oksasatya/go-event-locator/internal/interface/http"
	"github.com/oksasatya/go-event-locator/internal/router/modules"
	"github.com/oksasatya/go-event-locator/pkg/helpers"
)

// Deps is the object graph behind the HTTP modules.
type Deps struct {
	Sessions     *application.SessionService
	Registration *application.RegistrationService
	Profiles     *application.ProfileService

	RegistrationHandler *handlers.RegistrationHandler
	UserHandler         *handlers.UserHandler
	EmailHandler        *handlers.EmailHandler
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	events := pginfra.NewEventRelationRepository(pool)

	sessions := application.NewSessionService(users, container.GetJWT(), container.GetRedis(), logger, cfg.SessionTTL)
	indexer := search.NewESIndexer(container.GetES(), cfg.ESUsersIndex)

	var avatars application.AvatarStore
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		avatars = storage.NewGCSAvatarStore(gcs, cfg.GCSBucket)
	}

	var notifier application.Notifier
	if pub := container.GetRabbitPub(); pub != nil {
		notifier = notify.NewRabbitNotifier(pub, logger, cfg.NotifyMaxRetries, cfg.NotifyRetryBase)
	}

	registration := application.NewRegistrationService(users, sessions, notifier, indexer, cfg, logger)
	profiles := application.NewProfileService(users, events, avatars, indexer, sessions, logger, cfg.AvatarMaxBytes)

	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)
	return Deps{
		Sessions:            sessions,
		Registration:        registration,
		Profiles:            profiles,
		RegistrationHandler: handlers.NewRegistrationHandler(registration, logger, cookies),
		UserHandler:         handlers.NewUserHandler(sessions, profiles, logger, cookies),
		EmailHandler:        handlers.NewEmailHandler(registration, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	cfg := container.GetConfig()

	r.Add(modules.NewRegistrationModule(deps.RegistrationHandler, cfg.RegisterRateLimit))
	r.Add(modules.NewUserModule(deps.UserHandler, deps.Sessions))
	r.Add(modules.NewEmailModule(deps.EmailHandler, deps.Sessions))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
