package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cordobacasas/listing-api/internal/api/metrics"
	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

// PropertyHandler handles HTTP requests for listing operations.
type PropertyHandler struct {
	service ports.PropertyService
	metrics *metrics.Metrics
}

func NewPropertyHandler(service ports.PropertyService, m *metrics.Metrics) *PropertyHandler {
	return &PropertyHandler{service: service, metrics: m}
}

// List handles GET /properties.
//
// @Summary      List properties
// @Tags         properties
// @Produce      json
// @Param        minPrice      query     number  false  "Minimum price"
// @Param        maxPrice      query     number  false  "Maximum price"
// @Param        bedrooms      query     int     false  "Minimum bedrooms"
// @Param        neighborhood  query     string  false  "Neighborhood substring"
// @Param        propertyType  query     string  false  "sale or rental"
// @Param        status        query     string  false  "active or paused"
// @Param        ownerId       query     string  false  "Owner principal id"
// @Param        limit         query     int     false  "Page size"
// @Param        offset        query     int     false  "Rows to skip (requires limit)"
// @Success      200           {array}   propertyResponse
// @Failure      400           {object}  errorResponse
// @Router       /properties [get]
func (h *PropertyHandler) List(c echo.Context) error {
	filter, err := toFilter(c)
	if err != nil {
		return err
	}

	props, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPropertyResponses(props))
}

// Get handles GET /properties/:id.
//
// @Summary      Get a property
// @Tags         properties
// @Produce      json
// @Param        id   path      string  true  "Property id"
// @Success      200  {object}  propertyResponse
// @Failure      404  {object}  errorResponse
// @Router       /properties/{id} [get]
func (h *PropertyHandler) Get(c echo.Context) error {
	p, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPropertyResponse(p))
}

// Create handles POST /properties. The owner is the caller. A repeated
// Idempotency-Key returns the listing created the first time with 200.
//
// @Summary      Create a property
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createPropertyRequest  true   "Property details"
// @Success      201              {object}  propertyResponse
// @Success      200              {object}  propertyResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /properties [post]
func (h *PropertyHandler) Create(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req createPropertyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")
	result, err := h.service.Create(c.Request().Context(), caller, toCreateInput(req, idempotencyKey))
	if err != nil {
		return err
	}

	if result.AlreadyExisted {
		h.metrics.IdempotentReplaysTotal.Inc()
		return c.JSON(http.StatusOK, toPropertyResponse(result.Property))
	}
	h.metrics.PropertiesCreatedTotal.WithLabelValues(string(result.Property.PropertyType)).Inc()
	return c.JSON(http.StatusCreated, toPropertyResponse(result.Property))
}

// Update handles PUT /properties/:id. Only the owner or an admin may update;
// owner_id in the body is ignored.
//
// @Summary      Update a property
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Property id"
// @Param        body  body      updatePropertyRequest  true  "Fields to change"
// @Success      200   {object}  propertyResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /properties/{id} [put]
func (h *PropertyHandler) Update(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req updatePropertyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.Update(c.Request().Context(), caller, c.Param("id"), toPatch(req))
	h.observeMutation("update", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPropertyResponse(p))
}

// ToggleStatus handles PATCH /properties/:id/status.
//
// @Summary      Toggle a property between active and paused
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Property id"
// @Success      200  {object}  propertyResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /properties/{id}/status [patch]
func (h *PropertyHandler) ToggleStatus(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	p, err := h.service.ToggleStatus(c.Request().Context(), caller, c.Param("id"))
	h.observeMutation("toggle_status", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPropertyResponse(p))
}

// Delete handles DELETE /properties/:id.
//
// @Summary      Delete a property
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Property id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /properties/{id} [delete]
func (h *PropertyHandler) Delete(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	err = h.service.Delete(c.Request().Context(), caller, c.Param("id"))
	h.observeMutation("delete", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Property removed"})
}

func (h *PropertyHandler) observeMutation(action string, err error) {
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrForbidden):
		result = "forbidden"
	case errors.Is(err, domain.ErrPropertyNotFound):
		result = "not_found"
	default:
		result = metrics.ResultFailure
	}
	h.metrics.PropertyMutationsTotal.WithLabelValues(action, result).Inc()
}
