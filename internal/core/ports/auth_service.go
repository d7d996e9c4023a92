package ports

import (
	"context"

	"github.com/cordobacasas/listing-api/internal/core/domain"
)

// Session is a principal together with a freshly issued token.
type Session struct {
	Principal *domain.Principal
	Token     string
}

type AuthService interface {
	Login(ctx context.Context, kind domain.Kind, identifier, password string) (*Session, error)
	Register(ctx context.Context, username, email, password string) (*Session, error)
}

// ProfileUpdateInput holds the optional profile changes. Password is plaintext.
type ProfileUpdateInput struct {
	Username *string
	Email    *string
	Password *string
}

type ProfileService interface {
	Get(ctx context.Context, principalID string) (*domain.Principal, error)
	Update(ctx context.Context, principalID string, in ProfileUpdateInput) (*domain.Principal, error)
}
