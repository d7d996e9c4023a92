package domain

import "errors"

// Sentinel errors shared by services, repositories and the HTTP error handler.
var (
	ErrValidation          = errors.New("validation failed")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("access forbidden")
	ErrPrincipalNotFound   = errors.New("user not found")
	ErrPropertyNotFound    = errors.New("property not found")
	ErrDuplicateIdentifier = errors.New("username or email already registered")
)
