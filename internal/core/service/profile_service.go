package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

// ProfileService lets an authenticated principal read and edit its own account.
type ProfileService struct {
	repo   ports.PrincipalRepository
	hasher ports.PasswordHasher
	logger zerolog.Logger
}

func NewProfileService(repo ports.PrincipalRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *ProfileService {
	return &ProfileService{repo: repo, hasher: hasher, logger: logger}
}

func (s *ProfileService) Get(ctx context.Context, principalID string) (*domain.Principal, error) {
	return s.repo.FindByID(ctx, principalID)
}

// Update changes username, email and/or password. A new password is hashed
// before it reaches the store.
func (s *ProfileService) Update(ctx context.Context, principalID string, in ports.ProfileUpdateInput) (*domain.Principal, error) {
	var upd ports.PrincipalUpdate

	if in.Username != nil {
		u := strings.TrimSpace(*in.Username)
		if u == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", domain.ErrValidation)
		}
		upd.Username = &u
	}
	if in.Email != nil {
		e := normalizeIdentifier(domain.KindUser, *in.Email)
		if e == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", domain.ErrValidation)
		}
		upd.Email = &e
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", domain.ErrValidation)
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			if !errors.Is(err, domain.ErrValidation) {
				s.logger.Error().Err(err).Msg("password hashing failed")
			}
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	if upd == (ports.PrincipalUpdate{}) {
		return s.repo.FindByID(ctx, principalID)
	}

	p, err := s.repo.Update(ctx, principalID, upd)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("principal_id", principalID).
		Bool("password_changed", upd.PasswordHash != nil).
		Msg("profile updated")
	return p, nil
}
