package router

import (
	"github.com/oksasatya/vidtube-accounts/internal/application"
	"github.com/oksasatya/vidtube-accounts/internal/container"
	"github.com/oksasatya/vidtube-accounts/internal/infrastructure/postgres"
	"github.com/oksasatya/vidtube-accounts/internal/infrastructure/search"
	handlers "github.com/oksasatya/vidtube-accounts/internal/interface/http"
	"github.com/oksasatya/vidtube-accounts/internal/router/modules"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
	"github.com/oksasatya/vidtube-accounts/pkg/mailer/templates"
	"github.com/oksasatya/vidtube-accounts/pkg/validation"
)

type UserModuleDeps struct {
	Tokens         *application.TokenService
	Service        *application.Service
	Graph          *application.GraphService
	UserHandler    *handlers.UserHandler
	ChannelHandler *handlers.ChannelHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rec := container.GetMetrics()
	pool := container.GetPGPool()

	users := postgres.NewUserRepository(pool)
	creds := application.NewCredentialStore(users, helpers.NewBcryptHasher(cfg.BcryptCost))
	tokens := application.NewTokenService(users, container.GetJWT(), logger, rec)

	deps := application.ServiceDeps{
		Credentials: creds,
		Tokens:      tokens,
		Repo:        users,
		Blobs:       container.GetBlobStore(),
		Logger:      logger,
		Metrics:     rec,
		Brand:       templates.Brand{AppName: cfg.AppName, SupportURL: cfg.SupportURL, LoginURL: cfg.LoginURL},
		MailEnabled: cfg.MailSendEnabled,
	}
	// assigned only when present so the interfaces stay nil otherwise
	if pub := container.GetRabbitPub(); pub != nil {
		deps.Publisher = pub
	}
	if es := container.GetES(); es != nil && cfg.ESUsersIndex != "" {
		deps.Indexer = search.NewUserIndex(es, cfg.ESUsersIndex)
	}
	service := application.NewService(deps)
	graph := application.NewGraphService(postgres.NewGraphRepository(pool), logger)

	return UserModuleDeps{
		Tokens:         tokens,
		Service:        service,
		Graph:          graph,
		UserHandler:    handlers.NewUserHandler(service, logger, helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure), cfg.MaxUploadBytes),
		ChannelHandler: handlers.NewChannelHandler(graph, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry.
// Call once during startup after the container is populated.
func InitModules(r *Registry) {
	validation.Init()
	cfg := container.GetConfig()
	limits := modules.NewLimits(container.GetRedis(), cfg.RateLimitEnabled)

	userDeps := buildUserDeps()
	r.Add(modules.NewUserModule(userDeps.UserHandler, userDeps.ChannelHandler, userDeps.Tokens, limits))
	if cfg.MetricsEnabled && container.GetGatherer() != nil {
		r.Add(modules.NewDebugModule(container.GetGatherer(), limits))
	}
}
