package domain

import (
	"time"

	"github.com/gosimple/slug"
)

// PropertyType distinguishes listings for sale from rentals.
type PropertyType string

const (
	TypeSale   PropertyType = "sale"
	TypeRental PropertyType = "rental"
)

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	return t == TypeSale || t == TypeRental
}

// PropertyStatus controls whether a listing is shown as available.
type PropertyStatus string

const (
	StatusActive PropertyStatus = "active"
	StatusPaused PropertyStatus = "paused"
)

// Valid reports whether s is a known status.
func (s PropertyStatus) Valid() bool {
	return s == StatusActive || s == StatusPaused
}

// Toggled returns the opposite status. Anything that is not active becomes active,
// matching the store-side CASE expression.
func (s PropertyStatus) Toggled() PropertyStatus {
	if s == StatusActive {
		return StatusPaused
	}
	return StatusActive
}

// Property is a single listing. OwnerID is fixed at creation.
type Property struct {
	ID                  string         `json:"id" bson:"_id"`
	Slug                string         `json:"slug" bson:"slug"`
	Title               string         `json:"title" bson:"title"`
	Description         string         `json:"description" bson:"description"`
	Price               float64        `json:"price" bson:"price"`
	Address             string         `json:"address" bson:"address"`
	City                string         `json:"city" bson:"city"`
	Neighborhood        string         `json:"neighborhood" bson:"neighborhood"`
	Bedrooms            int            `json:"bedrooms" bson:"bedrooms"`
	Bathrooms           int            `json:"bathrooms" bson:"bathrooms"`
	Area                float64        `json:"area" bson:"area"`
	Images              []string       `json:"images" bson:"images"`
	PropertyType        PropertyType   `json:"property_type" bson:"property_type"`
	Status              PropertyStatus `json:"status" bson:"status"`
	MaintenanceFee      float64        `json:"maintenance_fee" bson:"maintenance_fee"`
	Requirements        string         `json:"requirements" bson:"requirements"`
	ContactInfo         string         `json:"contact_info" bson:"contact_info"`
	LocationCoordinates string         `json:"location_coordinates" bson:"location_coordinates"`
	OwnerID             string         `json:"owner_id" bson:"owner_id"`
	CreatedAt           time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" bson:"updated_at"`
}

// ImageURL is the cover image, for clients that show a single picture.
func (p *Property) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// CanMutate reports whether id may update, toggle or delete the property.
// Admins may mutate any listing; everyone else only their own.
func (p *Property) CanMutate(id Identity) bool {
	if id.IsAdmin() {
		return true
	}
	return id.PrincipalID != "" && id.PrincipalID == p.OwnerID
}

// PropertyPatch lists the fields an update may touch. Nil means "leave as is".
// It has no owner field: ownership never changes after creation.
type PropertyPatch struct {
	Title               *string
	Description         *string
	Price               *float64
	Address             *string
	City                *string
	Neighborhood        *string
	Bedrooms            *int
	Bathrooms           *int
	Area                *float64
	Images              *[]string
	PropertyType        *PropertyType
	Status              *PropertyStatus
	MaintenanceFee      *float64
	Requirements        *string
	ContactInfo         *string
	LocationCoordinates *string
}

// Empty reports whether the patch changes nothing.
func (p PropertyPatch) Empty() bool {
	return p == PropertyPatch{}
}

// Apply copies the set fields onto prop and refreshes the slug when the title changes.
func (p PropertyPatch) Apply(prop *Property) {
	if p.Title != nil {
		prop.Title = *p.Title
		prop.Slug = NewSlug(*p.Title)
	}
	if p.Description != nil {
		prop.Description = *p.Description
	}
	if p.Price != nil {
		prop.Price = *p.Price
	}
	if p.Address != nil {
		prop.Address = *p.Address
	}
	if p.City != nil {
		prop.City = *p.City
	}
	if p.Neighborhood != nil {
		prop.Neighborhood = *p.Neighborhood
	}
	if p.Bedrooms != nil {
		prop.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		prop.Bathrooms = *p.Bathrooms
	}
	if p.Area != nil {
		prop.Area = *p.Area
	}
	if p.Images != nil {
		prop.Images = append([]string(nil), (*p.Images)...)
	}
	if p.PropertyType != nil {
		prop.PropertyType = *p.PropertyType
	}
	if p.Status != nil {
		prop.Status = *p.Status
	}
	if p.MaintenanceFee != nil {
		prop.MaintenanceFee = *p.MaintenanceFee
	}
	if p.Requirements != nil {
		prop.Requirements = *p.Requirements
	}
	if p.ContactInfo != nil {
		prop.ContactInfo = *p.ContactInfo
	}
	if p.LocationCoordinates != nil {
		prop.LocationCoordinates = *p.LocationCoordinates
	}
}

// NewSlug builds the URL slug for a listing title.
func NewSlug(title string) string {
	return slug.Make(title)
}
