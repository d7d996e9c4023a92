package ports

import "github.com/cordobacasas/listing-api/internal/core/domain"

// PasswordHasher is a salted one-way hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(p *domain.Principal) (string, error)
	Verify(token string) (domain.Identity, error)
}
