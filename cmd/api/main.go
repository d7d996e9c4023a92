// Command api serves the listing REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cordobacasas/listing-api/internal/api"
	"github.com/cordobacasas/listing-api/internal/api/handler"
	"github.com/cordobacasas/listing-api/internal/core/ports"
	"github.com/cordobacasas/listing-api/internal/core/service"
	"github.com/cordobacasas/listing-api/internal/infrastructure/db"
	redisstore "github.com/cordobacasas/listing-api/internal/infrastructure/db/redis"
	"github.com/cordobacasas/listing-api/internal/infrastructure/security"
	"github.com/cordobacasas/listing-api/internal/pkg/config"
	"github.com/cordobacasas/listing-api/pkg/logger"
)

// @title                       Córdoba Casas Listing API
// @version                     1.0
// @description                 Property listings with owner and admin authentication.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "listing-api"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "listing-api",
	})

	stores, err := db.Open(ctx, cfg, logger.Component("store"))
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stores.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	checks := map[string]handler.Pinger{"store": stores}

	// Idempotency-Key support needs redis; without it creates are never deduplicated.
	var idempotency ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		idempotency = redisstore.NewIdempotencyStore(rdb)
		checks["redis"] = redisstore.NewHealthCheck(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, Idempotency-Key headers are ignored")
	}

	hasher := security.NewBcryptHasher()
	issuer, err := security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token issuer")
	}

	authService, err := service.NewAuthService(stores.Principals, hasher, issuer, logger.Component("auth"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build auth service")
	}
	profileService := service.NewProfileService(stores.Principals, hasher, logger.Component("profile"))
	propertyService := service.NewPropertyService(stores.Properties, idempotency, cfg.Idempotency.TTL, logger.Component("properties"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := api.NewRouter(api.Deps{
		Auth:       authService,
		Profiles:   profileService,
		Properties: propertyService,
		Tokens:     issuer,
		Checks:     checks,
		Registry:   reg,
		Logger:     logger.Component("http"),
		DevMode:    cfg.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", stores.Driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}
