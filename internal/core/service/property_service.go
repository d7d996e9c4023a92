package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	maxListLimit          = 100
)

type PropertyService struct {
	repo           ports.PropertyRepository
	idempotency    ports.IdempotencyStore
	idempotencyTTL time.Duration
	logger         zerolog.Logger
}

// NewPropertyService builds the listing service. idem may be nil, in which
// case Idempotency-Key headers are ignored.
func NewPropertyService(repo ports.PropertyRepository, idem ports.IdempotencyStore, idemTTL time.Duration, logger zerolog.Logger) *PropertyService {
	if idemTTL <= 0 {
		idemTTL = defaultIdempotencyTTL
	}
	return &PropertyService{
		repo:           repo,
		idempotency:    idem,
		idempotencyTTL: idemTTL,
		logger:         logger,
	}
}

// List returns listings matching filter, newest first. Offset without a limit
// is dropped and limits above maxListLimit are capped.
func (s *PropertyService) List(ctx context.Context, filter ports.PropertyFilter) ([]*domain.Property, error) {
	if filter.MinPrice < 0 || filter.MaxPrice < 0 || filter.MinBedrooms < 0 || filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: numeric filters cannot be negative", domain.ErrValidation)
	}
	if filter.PropertyType != "" && !filter.PropertyType.Valid() {
		return nil, fmt.Errorf("%w: unknown property type %q", domain.ErrValidation, filter.PropertyType)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	if filter.Limit == 0 {
		filter.Offset = 0
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	props, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list properties")
		return nil, err
	}
	return props, nil
}

func (s *PropertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new listing owned by the caller. A repeated Idempotency-Key
// from the same owner returns the listing created the first time.
func (s *PropertyService) Create(ctx context.Context, caller domain.Identity, in ports.CreatePropertyInput) (*ports.CreatePropertyResult, error) {
	if caller.PrincipalID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if !in.PropertyType.Valid() {
		return nil, fmt.Errorf("%w: property_type must be sale or rental", domain.ErrValidation)
	}

	if existing := s.replay(ctx, caller.PrincipalID, in.IdempotencyKey); existing != nil {
		return &ports.CreatePropertyResult{Property: existing, AlreadyExisted: true}, nil
	}

	now := time.Now().UTC()
	p := &domain.Property{
		ID:                  uuid.NewString(),
		Slug:                domain.NewSlug(in.Title),
		Title:               strings.TrimSpace(in.Title),
		Description:         in.Description,
		Price:               in.Price,
		Address:             in.Address,
		City:                in.City,
		Neighborhood:        in.Neighborhood,
		Bedrooms:            in.Bedrooms,
		Bathrooms:           in.Bathrooms,
		Area:                in.Area,
		Images:              append([]string{}, in.Images...),
		PropertyType:        in.PropertyType,
		Status:              domain.StatusActive,
		MaintenanceFee:      in.MaintenanceFee,
		Requirements:        in.Requirements,
		ContactInfo:         in.ContactInfo,
		LocationCoordinates: in.LocationCoordinates,
		OwnerID:             caller.PrincipalID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Msg("failed to create property")
		return nil, err
	}

	if in.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Remember(ctx, caller.PrincipalID, in.IdempotencyKey, p.ID, s.idempotencyTTL); err != nil {
			s.logger.Warn().Err(err).Str("property_id", p.ID).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Str("property_id", p.ID).Str("owner_id", p.OwnerID).Msg("property created")
	return &ports.CreatePropertyResult{Property: p}, nil
}

// replay returns the property an earlier request with the same key created.
// Lookup failures are logged and treated as a miss.
func (s *PropertyService) replay(ctx context.Context, ownerID, key string) *domain.Property {
	if key == "" || s.idempotency == nil {
		return nil
	}
	id, found, err := s.idempotency.Lookup(ctx, ownerID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if !found {
		return nil
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		// The listing may have been deleted since; create a fresh one.
		return nil
	}
	s.logger.Info().Str("idempotency_key", key).Str("property_id", id).Msg("idempotent replay")
	return existing
}

// Update applies patch when the caller owns the property or is an admin.
func (s *PropertyService) Update(ctx context.Context, caller domain.Identity, id string, patch domain.PropertyPatch) (*domain.Property, error) {
	if patch.PropertyType != nil && !patch.PropertyType.Valid() {
		return nil, fmt.Errorf("%w: property_type must be sale or rental", domain.ErrValidation)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: status must be active or paused", domain.ErrValidation)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
	}

	current, err := s.authorize(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if !errors.Is(err, domain.ErrPropertyNotFound) {
			s.logger.Error().Err(err).Str("property_id", id).Msg("failed to update property")
		}
		return nil, err
	}
	s.logger.Info().Str("property_id", id).Str("by", caller.PrincipalID).Msg("property updated")
	return updated, nil
}

// Delete removes the property when the caller owns it or is an admin.
func (s *PropertyService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	if _, err := s.authorize(ctx, caller, id); err != nil {
		return err
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("property_id", id).Msg("failed to delete property")
		return err
	}
	if !removed {
		// Deleted concurrently between the ownership check and the delete.
		return domain.ErrPropertyNotFound
	}
	s.logger.Info().Str("property_id", id).Str("by", caller.PrincipalID).Msg("property deleted")
	return nil
}

// ToggleStatus flips active/paused and returns the stored row.
func (s *PropertyService) ToggleStatus(ctx context.Context, caller domain.Identity, id string) (*domain.Property, error) {
	if _, err := s.authorize(ctx, caller, id); err != nil {
		return nil, err
	}

	ok, err := s.repo.ToggleStatus(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("property_id", id).Msg("failed to toggle property status")
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// authorize loads the property and then checks ownership, so a missing
// property is always NotFound and never Forbidden.
func (s *PropertyService) authorize(ctx context.Context, caller domain.Identity, id string) (*domain.Property, error) {
	if caller.PrincipalID == "" {
		return nil, domain.ErrUnauthenticated
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanMutate(caller) {
		s.logger.Warn().Str("property_id", id).Str("principal_id", caller.PrincipalID).Msg("ownership check failed")
		return nil, fmt.Errorf("%w: not the owner of this property", domain.ErrForbidden)
	}
	return p, nil
}
