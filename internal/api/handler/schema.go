package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

// loginRequest accepts either username (admins) or email (users).
type loginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type authResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Kind     string `json:"kind"`
	Token    string `json:"token"`
}

// --- Profile ---

type profileResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type profileUpdateRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

// --- Properties ---

type createPropertyRequest struct {
	Title               string   `json:"title"                validate:"required"`
	Description         string   `json:"description"`
	Price               float64  `json:"price"                validate:"gte=0"`
	Address             string   `json:"address"`
	City                string   `json:"city"`
	Neighborhood        string   `json:"neighborhood"`
	Bedrooms            int      `json:"bedrooms"             validate:"gte=0"`
	Bathrooms           int      `json:"bathrooms"            validate:"gte=0"`
	Area                float64  `json:"area"                 validate:"gte=0"`
	Images              []string `json:"images"               validate:"omitempty,dive,required"`
	ImageURL            string   `json:"image_url"`
	PropertyType        string   `json:"property_type"        validate:"required,oneof=sale rental"`
	MaintenanceFee      float64  `json:"maintenance_fee"      validate:"gte=0"`
	Requirements        string   `json:"requirements"`
	ContactInfo         string   `json:"contact_info"`
	LocationCoordinates string   `json:"location_coordinates"`
}

// updatePropertyRequest lists every field a PUT may change. Unknown keys,
// owner_id included, are dropped by the JSON decoder.
type updatePropertyRequest struct {
	Title               *string   `json:"title"                validate:"omitempty,min=1"`
	Description         *string   `json:"description"`
	Price               *float64  `json:"price"                validate:"omitempty,gte=0"`
	Address             *string   `json:"address"`
	City                *string   `json:"city"`
	Neighborhood        *string   `json:"neighborhood"`
	Bedrooms            *int      `json:"bedrooms"             validate:"omitempty,gte=0"`
	Bathrooms           *int      `json:"bathrooms"            validate:"omitempty,gte=0"`
	Area                *float64  `json:"area"                 validate:"omitempty,gte=0"`
	Images              *[]string `json:"images"`
	PropertyType        *string   `json:"property_type"        validate:"omitempty,oneof=sale rental"`
	Status              *string   `json:"status"               validate:"omitempty,oneof=active paused"`
	MaintenanceFee      *float64  `json:"maintenance_fee"      validate:"omitempty,gte=0"`
	Requirements        *string   `json:"requirements"`
	ContactInfo         *string   `json:"contact_info"`
	LocationCoordinates *string   `json:"location_coordinates"`
}

type propertyResponse struct {
	ID                  string    `json:"id"`
	Slug                string    `json:"slug"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Price               float64   `json:"price"`
	Address             string    `json:"address"`
	City                string    `json:"city"`
	Neighborhood        string    `json:"neighborhood"`
	Bedrooms            int       `json:"bedrooms"`
	Bathrooms           int       `json:"bathrooms"`
	Area                float64   `json:"area"`
	Images              []string  `json:"images"`
	ImageURL            string    `json:"image_url,omitempty"`
	PropertyType        string    `json:"property_type"`
	Status              string    `json:"status"`
	MaintenanceFee      float64   `json:"maintenance_fee"`
	Requirements        string    `json:"requirements"`
	ContactInfo         string    `json:"contact_info"`
	LocationCoordinates string    `json:"location_coordinates"`
	OwnerID             string    `json:"owner_id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
