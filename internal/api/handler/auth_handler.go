package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cordobacasas/listing-api/internal/api/metrics"
	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	metrics     *metrics.Metrics
}

func NewAuthHandler(authService ports.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authService: authService, metrics: m}
}

// Register creates a property-owner account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		result := metrics.ResultFailure
		if errors.Is(err, domain.ErrDuplicateIdentifier) {
			result = "conflict"
		}
		h.metrics.RegistrationsTotal.WithLabelValues(result).Inc()
		return err
	}
	h.metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	return c.JSON(http.StatusCreated, toAuthResponse(session))
}

// Login authenticates an admin (by username) or a user (by email) and
// returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	kind, identifier := domain.KindAdmin, req.Username
	if strings.TrimSpace(req.Email) != "" {
		kind, identifier = domain.KindUser, req.Email
	}

	session, err := h.authService.Login(c.Request().Context(), kind, identifier, req.Password)
	if err != nil {
		h.metrics.LoginsTotal.WithLabelValues(string(kind), metrics.ResultFailure).Inc()
		return err
	}
	h.metrics.LoginsTotal.WithLabelValues(string(kind), metrics.ResultSuccess).Inc()

	return c.JSON(http.StatusOK, toAuthResponse(session))
}
