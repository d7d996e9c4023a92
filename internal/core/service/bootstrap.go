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

// Bootstrapper seeds the first admin account. It is run by deployment tooling,
// not as a side effect of opening the store.
type Bootstrapper struct {
	repo   ports.PrincipalRepository
	hasher ports.PasswordHasher
	logger zerolog.Logger
}

func NewBootstrapper(repo ports.PrincipalRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{repo: repo, hasher: hasher, logger: logger}
}

// EnsureAdmin creates an admin with the given credentials unless an admin
// already exists. It reports whether one was created.
func (b *Bootstrapper) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, fmt.Errorf("%w: admin username and password are required", domain.ErrValidation)
	}

	exists, err := b.repo.ExistsKind(ctx, domain.KindAdmin)
	if err != nil {
		return false, fmt.Errorf("check admins: %w", err)
	}
	if exists {
		b.logger.Info().Msg("admin already present, nothing to seed")
		return false, nil
	}

	hash, err := b.hasher.Hash(password)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	admin := &domain.Principal{
		ID:           uuid.NewString(),
		Kind:         domain.KindAdmin,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := b.repo.Create(ctx, admin); err != nil {
		// Another bootstrap run won the race.
		if errors.Is(err, domain.ErrDuplicateIdentifier) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}

	b.logger.Warn().Str("username", username).Msg("default admin created; rotate its password before going live")
	return true, nil
}
