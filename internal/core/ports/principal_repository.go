package ports

import (
	"context"

	"github.com/cordobacasas/listing-api/internal/core/domain"
)

// PrincipalUpdate carries the profile fields a principal may change about itself.
// PasswordHash is already hashed; plaintext never reaches the store.
type PrincipalUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// PrincipalRepository is the credential store for admins and users.
type PrincipalRepository interface {
	// Create inserts p. Returns domain.ErrDuplicateIdentifier when the
	// username or email is taken.
	Create(ctx context.Context, p *domain.Principal) error
	// FindByLogin looks a principal up by the identifier its kind logs in with:
	// username for admins, email for users.
	FindByLogin(ctx context.Context, kind domain.Kind, identifier string) (*domain.Principal, error)
	FindByID(ctx context.Context, id string) (*domain.Principal, error)
	// ExistsKind reports whether at least one principal of kind exists.
	ExistsKind(ctx context.Context, kind domain.Kind) (bool, error)
	Update(ctx context.Context, id string, upd PrincipalUpdate) (*domain.Principal, error)
}
