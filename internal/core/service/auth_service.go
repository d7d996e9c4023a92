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

// AuthService implements registration and login for both principal kinds.
type AuthService struct {
	repo   ports.PrincipalRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	logger zerolog.Logger

	// dummyHash is compared against when the principal does not exist so a
	// miss costs the same as a wrong password.
	dummyHash string
}

func NewAuthService(repo ports.PrincipalRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, logger zerolog.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
		dummyHash: dummy,
	}, nil
}

// Login verifies the credentials of a principal of the given kind and issues a token.
// Unknown principals and wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, kind domain.Kind, identifier, password string) (*ports.Session, error) {
	identifier = normalizeIdentifier(kind, identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", domain.ErrValidation)
	}
	if !kind.Valid() {
		return nil, domain.ErrInvalidCredentials
	}

	p, err := s.repo.FindByLogin(ctx, kind, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("login lookup failed")
		return nil, err
	}

	if !s.hasher.Verify(password, p.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(p)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("principal_id", p.ID).Str("kind", string(kind)).Msg("login succeeded")
	return &ports.Session{Principal: p, Token: token}, nil
}

// Register creates a user principal and logs it in.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*ports.Session, error) {
	username = strings.TrimSpace(username)
	email = normalizeIdentifier(domain.KindUser, email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", domain.ErrValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			s.logger.Error().Err(err).Msg("password hashing failed")
		}
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Principal{
		ID:           uuid.NewString(),
		Kind:         domain.KindUser,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if !errors.Is(err, domain.ErrDuplicateIdentifier) {
			s.logger.Error().Err(err).Msg("failed to create user")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(p)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("principal_id", p.ID).Msg("user registered")
	return &ports.Session{Principal: p, Token: token}, nil
}

// normalizeIdentifier trims input and lower-cases emails.
func normalizeIdentifier(kind domain.Kind, identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if kind == domain.KindUser {
		identifier = strings.ToLower(identifier)
	}
	return identifier
}
