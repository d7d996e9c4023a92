package ports

import (
	"context"
	"time"

	"github.com/cordobacasas/listing-api/internal/core/domain"
)

// CreatePropertyInput carries everything needed to create a listing.
// The owner comes from the authenticated identity, never from the payload.
type CreatePropertyInput struct {
	Title               string
	Description         string
	Price               float64
	Address             string
	City                string
	Neighborhood        string
	Bedrooms            int
	Bathrooms           int
	Area                float64
	Images              []string
	PropertyType        domain.PropertyType
	MaintenanceFee      float64
	Requirements        string
	ContactInfo         string
	LocationCoordinates string
	IdempotencyKey      string
}

// CreatePropertyResult wraps the stored listing.
type CreatePropertyResult struct {
	Property *domain.Property
	// AlreadyExisted is true when the Idempotency-Key matched an earlier create.
	AlreadyExisted bool
}

// IdempotencyStore remembers which property an Idempotency-Key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, ownerID, key string) (propertyID string, found bool, err error)
	Remember(ctx context.Context, ownerID, key, propertyID string, ttl time.Duration) error
}

// PropertyService defines the listing use cases. Mutations take the caller's
// identity and enforce ownership after confirming the property exists.
type PropertyService interface {
	List(ctx context.Context, filter PropertyFilter) ([]*domain.Property, error)
	Get(ctx context.Context, id string) (*domain.Property, error)
	Create(ctx context.Context, caller domain.Identity, in CreatePropertyInput) (*CreatePropertyResult, error)
	Update(ctx context.Context, caller domain.Identity, id string, patch domain.PropertyPatch) (*domain.Property, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
	ToggleStatus(ctx context.Context, caller domain.Identity, id string) (*domain.Property, error)
}
