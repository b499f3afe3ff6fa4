package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-identity/config"
	appuser "github.com/oksasatya/go-user-identity/internal/application"
	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/domain/errs"
	pginfra "github.com/oksasatya/go-user-identity/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-identity/pkg/helpers"
)

// seed registers one password user and one Google user through the same
// builder rules the API uses. Existing accounts are left alone.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	cipher, err := helpers.NewCipher(cfg.EncryptKey)
	if err != nil {
		log.Fatalf("failed to init password cipher: %v", err)
	}
	svc := appuser.NewService(pginfra.NewUserRepository(pool), cipher, nil, nil, logger)

	users := []appuser.RegisterInput{
		{Name: "Demo User", Email: "demo@example.com", Password: "password123", Register: "123.456.789-09"},
		{Name: "Demo Google", Email: "demo.google@example.com", RegisterType: entity.RegisterTypeGoogle, ExternalID: "google-demo-1"},
	}
	for _, in := range users {
		u, err := svc.Register(ctx, in)
		switch {
		case errors.Is(err, errs.ErrDuplicatedEmail), errors.Is(err, errs.ErrDuplicatedRegister):
			helpers.LogInfo(logger, "seed user exists", logrus.Fields{"email": in.Email})
		case err != nil:
			log.Fatalf("failed to seed %s: %v", in.Email, err)
		default:
			helpers.LogInfo(logger, "seeded user", logrus.Fields{"id": u.ID, "email": u.Email, "register_type": u.RegisterType})
		}
	}
}
