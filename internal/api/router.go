package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/cordobacasas/listing-api/docs" // registers the swagger document
	"github.com/cordobacasas/listing-api/internal/api/handler"
	"github.com/cordobacasas/listing-api/internal/api/metrics"
	"github.com/cordobacasas/listing-api/internal/api/middleware"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

// Deps is everything the router needs. Services and stores are built by the
// caller and injected here.
type Deps struct {
	Auth       ports.AuthService
	Profiles   ports.ProfileService
	Properties ports.PropertyService
	Tokens     ports.TokenIssuer

	// Checks are pinged by GET /health/ready, keyed by dependency name.
	Checks map[string]handler.Pinger

	// Registry receives HTTP and business metrics and backs GET /metrics.
	// A fresh registry is created when nil.
	Registry *prometheus.Registry

	Logger  zerolog.Logger
	DevMode bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger, d.DevMode)

	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, "Idempotency-Key",
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "listings",
		Registerer: reg,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, m)
	profileHandler := handler.NewProfileHandler(d.Profiles)
	propertyHandler := handler.NewPropertyHandler(d.Properties, m)
	healthHandler := handler.NewHealthHandler(d.Checks, d.Logger)
	requireAuth := middleware.Auth(d.Tokens)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Properties: reads are public, writes need a bearer token ---
	e.GET("/properties", propertyHandler.List)
	e.GET("/properties/:id", propertyHandler.Get)

	e.POST("/properties", propertyHandler.Create, requireAuth)
	e.PUT("/properties/:id", propertyHandler.Update, requireAuth)
	e.PATCH("/properties/:id/status", propertyHandler.ToggleStatus, requireAuth)
	e.DELETE("/properties/:id", propertyHandler.Delete, requireAuth)

	// --- Profile ---
	users := e.Group("/users", requireAuth)
	users.GET("/profile", profileHandler.Get)
	users.PUT("/profile", profileHandler.Update)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
