package handler

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createPropertyRequest, idempotencyKey string) ports.CreatePropertyInput {
	images := req.Images
	if len(images) == 0 && req.ImageURL != "" {
		images = []string{req.ImageURL}
	}
	return ports.CreatePropertyInput{
		Title:               req.Title,
		Description:         req.Description,
		Price:               req.Price,
		Address:             req.Address,
		City:                req.City,
		Neighborhood:        req.Neighborhood,
		Bedrooms:            req.Bedrooms,
		Bathrooms:           req.Bathrooms,
		Area:                req.Area,
		Images:              images,
		PropertyType:        domain.PropertyType(req.PropertyType),
		MaintenanceFee:      req.MaintenanceFee,
		Requirements:        req.Requirements,
		ContactInfo:         req.ContactInfo,
		LocationCoordinates: req.LocationCoordinates,
		IdempotencyKey:      idempotencyKey,
	}
}

func toPatch(req updatePropertyRequest) domain.PropertyPatch {
	patch := domain.PropertyPatch{
		Title:               req.Title,
		Description:         req.Description,
		Price:               req.Price,
		Address:             req.Address,
		City:                req.City,
		Neighborhood:        req.Neighborhood,
		Bedrooms:            req.Bedrooms,
		Bathrooms:           req.Bathrooms,
		Area:                req.Area,
		Images:              req.Images,
		MaintenanceFee:      req.MaintenanceFee,
		Requirements:        req.Requirements,
		ContactInfo:         req.ContactInfo,
		LocationCoordinates: req.LocationCoordinates,
	}
	if req.PropertyType != nil {
		t := domain.PropertyType(*req.PropertyType)
		patch.PropertyType = &t
	}
	if req.Status != nil {
		s := domain.PropertyStatus(*req.Status)
		patch.Status = &s
	}
	return patch
}

// toFilter reads the listing query string. Non-numeric values are a 400.
func toFilter(c echo.Context) (ports.PropertyFilter, error) {
	f := ports.PropertyFilter{
		Neighborhood: c.QueryParam("neighborhood"),
		PropertyType: domain.PropertyType(c.QueryParam("propertyType")),
		Status:       domain.PropertyStatus(c.QueryParam("status")),
		OwnerID:      c.QueryParam("ownerId"),
	}
	err := echo.QueryParamsBinder(c).
		Float64("minPrice", &f.MinPrice).
		Float64("maxPrice", &f.MaxPrice).
		Int("bedrooms", &f.MinBedrooms).
		Int("limit", &f.Limit).
		Int("offset", &f.Offset).
		BindError()
	if err != nil {
		var be *echo.BindingError
		if errors.As(err, &be) {
			return f, fmt.Errorf("%w: query parameter %s must be numeric", domain.ErrValidation, be.Field)
		}
		return f, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return f, nil
}

// --- Domain → Response ---

func toPropertyResponse(p *domain.Property) propertyResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return propertyResponse{
		ID:                  p.ID,
		Slug:                p.Slug,
		Title:               p.Title,
		Description:         p.Description,
		Price:               p.Price,
		Address:             p.Address,
		City:                p.City,
		Neighborhood:        p.Neighborhood,
		Bedrooms:            p.Bedrooms,
		Bathrooms:           p.Bathrooms,
		Area:                p.Area,
		Images:              images,
		ImageURL:            p.ImageURL(),
		PropertyType:        string(p.PropertyType),
		Status:              string(p.Status),
		MaintenanceFee:      p.MaintenanceFee,
		Requirements:        p.Requirements,
		ContactInfo:         p.ContactInfo,
		LocationCoordinates: p.LocationCoordinates,
		OwnerID:             p.OwnerID,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func toPropertyResponses(props []*domain.Property) []propertyResponse {
	out := make([]propertyResponse, 0, len(props))
	for _, p := range props {
		out = append(out, toPropertyResponse(p))
	}
	return out
}

func toAuthResponse(s *ports.Session) authResponse {
	return authResponse{
		ID:       s.Principal.ID,
		Username: s.Principal.Username,
		Email:    s.Principal.Email,
		Kind:     string(s.Principal.Kind),
		Token:    s.Token,
	}
}

func toProfileResponse(p *domain.Principal) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		Kind:      string(p.Kind),
		CreatedAt: p.CreatedAt,
	}
}
