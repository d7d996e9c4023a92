// Command bootstrap seeds the default admin account. Running it again is a
// no-op once any admin exists.
package main

import (
	"context"
	"os"
	"time"

	"github.com/cordobacasas/listing-api/internal/core/service"
	"github.com/cordobacasas/listing-api/internal/infrastructure/db"
	"github.com/cordobacasas/listing-api/internal/infrastructure/security"
	"github.com/cordobacasas/listing-api/internal/pkg/config"
	"github.com/cordobacasas/listing-api/pkg/logger"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "listing-bootstrap"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "listing-bootstrap",
	})

	stores, err := db.Open(ctx, cfg, logger.Component("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	boot := service.NewBootstrapper(stores.Principals, security.NewBcryptHasher(), logger.Component("bootstrap"))
	created, err := boot.EnsureAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword)
	closeErr := stores.Close(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to seed admin")
		os.Exit(1)
	}
	if closeErr != nil {
		log.Warn().Err(closeErr).Msg("failed to close store")
	}

	if created {
		log.Info().Str("username", cfg.Bootstrap.AdminUsername).Msg("default admin created")
		return
	}
	log.Info().Msg("an admin already exists, nothing to do")
}
