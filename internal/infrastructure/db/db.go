// Package db opens the configured persistence backend and exposes it
// through the core repository ports.
package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cordobacasas/listing-api/internal/core/ports"
	mongostore "github.com/cordobacasas/listing-api/internal/infrastructure/db/mongo"
	"github.com/cordobacasas/listing-api/internal/infrastructure/db/sqlstore"
	"github.com/cordobacasas/listing-api/internal/pkg/config"
)

// Stores bundles the repositories of one backend with its lifecycle hooks.
type Stores struct {
	Driver     string
	Principals ports.PrincipalRepository
	Properties ports.PropertyRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping reports whether the backend is reachable.
func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the connection pool.
func (s *Stores) Close(ctx context.Context) error {
	return s.close(ctx)
}

// Open connects to the backend named by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Stores, error) {
	switch cfg.Store.Driver {
	case sqlstore.DriverPostgres, sqlstore.DriverSQLite:
		dsn := cfg.Store.DatabaseURL
		if cfg.Store.Driver == sqlstore.DriverSQLite {
			dsn = cfg.Store.SQLitePath
		}
		s, err := sqlstore.Open(ctx, cfg.Store.Driver, dsn, cfg.Store.MaxOpenConns, logger)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Driver:     cfg.Store.Driver,
			Principals: s.Principals(),
			Properties: s.Properties(),
			ping:       s.Ping,
			close:      func(context.Context) error { return s.Close() },
		}, nil

	case "mongo":
		client, database, err := mongostore.Connect(ctx, mongostore.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: uint64(cfg.Store.MaxOpenConns),
		})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info().Str("database", cfg.Mongo.Database).Msg("mongo store initialized")
		return &Stores{
			Driver:     "mongo",
			Principals: mongostore.NewPrincipalRepository(database),
			Properties: mongostore.NewPropertyRepository(database),
			ping:       func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:      client.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("db: unsupported store driver %q", cfg.Store.Driver)
	}
}
