package ports

import (
	"context"

	"github.com/cordobacasas/listing-api/internal/core/domain"
)

// PropertyFilter carries the optional listing filters. Zero values mean
// "no filter"; all set filters combine with AND.
type PropertyFilter struct {
	MinPrice     float64 // price >= MinPrice
	MaxPrice     float64 // price <= MaxPrice
	MinBedrooms  int     // bedrooms >= MinBedrooms
	Neighborhood string  // case-insensitive substring
	PropertyType domain.PropertyType
	Status       domain.PropertyStatus
	OwnerID      string
	Limit        int // 0 = unlimited
	Offset       int // ignored unless Limit > 0
}

// PropertyRepository defines persistence operations for listings.
type PropertyRepository interface {
	// List returns matching properties, newest first.
	List(ctx context.Context, filter PropertyFilter) ([]*domain.Property, error)
	FindByID(ctx context.Context, id string) (*domain.Property, error)
	Create(ctx context.Context, p *domain.Property) error
	// Update applies patch and returns the stored row. owner_id is never written.
	Update(ctx context.Context, id string, patch domain.PropertyPatch) (*domain.Property, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
	// ToggleStatus flips active/paused in a single statement and reports
	// whether a row matched.
	ToggleStatus(ctx context.Context, id string) (bool, error)
}
