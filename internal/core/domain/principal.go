package domain

import "time"

// Kind tags what sort of principal authenticated.
type Kind string

const (
	KindAdmin Kind = "admin"
	KindUser  Kind = "user"
)

// Valid reports whether k is a known principal kind.
func (k Kind) Valid() bool {
	return k == KindAdmin || k == KindUser
}

// Principal is anyone who can obtain a token: an admin or a property owner.
// Admins log in by username, users by email.
type Principal struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the principal carries the admin override.
func (p *Principal) IsAdmin() bool {
	return p.Kind == KindAdmin
}

// LoginIdentifier returns the field a principal of this kind logs in with.
func (p *Principal) LoginIdentifier() string {
	if p.Kind == KindAdmin {
		return p.Username
	}
	return p.Email
}

// Identity is what a verified bearer token proves about the caller.
type Identity struct {
	PrincipalID string
	Kind        Kind
}

// IsAdmin reports whether the caller authenticated as an admin.
func (i Identity) IsAdmin() bool {
	return i.Kind == KindAdmin
}
