package router

import (
	appuser "github.com/oksasatya/go-user-identity/internal/application"
	"github.com/oksasatya/go-user-identity/internal/container"
	repouser "github.com/oksasatya/go-user-identity/internal/domain/repository"
	pginfra "github.com/oksasatya/go-user-identity/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-identity/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-user-identity/internal/interface/http"
	"github.com/oksasatya/go-user-identity/internal/router/modules"
	"github.com/oksasatya/go-user-identity/pkg/helpers"
)

type UserModuleDeps struct {
	Repo        repouser.UserRepository
	Service     *appuser.Service
	UserHandler *handlers.UserHandler
	AuthHandler *handlers.AuthHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := appuser.NewService(
		repo,
		container.GetCipher(),
		container.GetJWT(),
		container.GetRedis(),
		logger,
	)
	service.Policy = appuser.RollbackPolicy{Window: cfg.RollbackWindow}

	// optional side effects; assigned only when the client exists
	if es := container.GetES(); es != nil {
		service.Index = search.NewUserIndex(es, cfg.ESUsersIndex, logger)
	}
	if pub := container.GetRabbitPub(); pub != nil {
		service.Events = pub
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		service.Avatars = helpers.NewGCSUploader(gcs, cfg.GCSBucket)
	}

	audit := &handlers.Auditor{Repo: pginfra.NewAuditRepository(container.GetPGPool()), Logger: logger}
	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)

	return UserModuleDeps{
		Repo:        repo,
		Service:     service,
		UserHandler: handlers.NewUserHandler(service, audit, logger, cookies),
		AuthHandler: handlers.NewAuthHandler(service, audit, logger, cookies),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildUserDeps()
	r.Add(modules.NewUserModule(deps.UserHandler, deps.Service, container.GetJWT()))
	r.Add(modules.NewAuthModule(deps.AuthHandler, container.GetJWT()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
