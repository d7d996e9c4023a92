package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
	"github.com/cordobacasas/listing-api/internal/infrastructure/security"
)

func strPtr(s string) *string { return &s }

func registerUser(t *testing.T, repo *stubPrincipalRepo, username, email, password string) *domain.Principal {
	t.Helper()
	issuer, _ := security.NewJWTIssuer("test-secret", 0)
	auth, err := NewAuthService(repo, security.NewBcryptHasher(), issuer, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	sess, err := auth.Register(context.Background(), username, email, password)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return sess.Principal
}

func TestProfileService_Get(t *testing.T) {
	repo := newStubPrincipalRepo()
	u := registerUser(t, repo, "erin", "erin@example.com", "pass123")
	svc := NewProfileService(repo, security.NewBcryptHasher(), zerolog.Nop())

	got, err := svc.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != "erin@example.com" {
		t.Fatalf("unexpected email %q", got.Email)
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestProfileService_Update_RehashesPassword(t *testing.T) {
	repo := newStubPrincipalRepo()
	u := registerUser(t, repo, "frank", "frank@example.com", "oldpass")
	hasher := security.NewBcryptHasher()
	svc := NewProfileService(repo, hasher, zerolog.Nop())

	updated, err := svc.Update(context.Background(), u.ID, ports.ProfileUpdateInput{
		Email:    strPtr(" Frank@New.example "),
		Password: strPtr("newpass"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Email != "frank@new.example" {
		t.Fatalf("email not normalized: %q", updated.Email)
	}
	if updated.PasswordHash == "newpass" {
		t.Fatal("password stored in plaintext")
	}
	if !hasher.Verify("newpass", updated.PasswordHash) {
		t.Fatal("new password does not verify")
	}
	if hasher.Verify("oldpass", updated.PasswordHash) {
		t.Fatal("old password still verifies")
	}
	if updated.Username != "frank" {
		t.Fatalf("username changed unexpectedly: %q", updated.Username)
	}
}

func TestProfileService_Update_EmptyInputIsNoop(t *testing.T) {
	repo := newStubPrincipalRepo()
	u := registerUser(t, repo, "gina", "gina@example.com", "pass123")
	svc := NewProfileService(repo, security.NewBcryptHasher(), zerolog.Nop())

	got, err := svc.Update(context.Background(), u.ID, ports.ProfileUpdateInput{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.PasswordHash != u.PasswordHash || got.Username != u.Username {
		t.Fatalf("noop update changed the principal: %+v", got)
	}
}

func TestProfileService_Update_Errors(t *testing.T) {
	repo := newStubPrincipalRepo()
	u := registerUser(t, repo, "hank", "hank@example.com", "pass123")
	registerUser(t, repo, "ivy", "ivy@example.com", "pass123")
	svc := NewProfileService(repo, security.NewBcryptHasher(), zerolog.Nop())

	if _, err := svc.Update(context.Background(), u.ID, ports.ProfileUpdateInput{Username: strPtr("  ")}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank username: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Update(context.Background(), u.ID, ports.ProfileUpdateInput{Password: strPtr("")}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty password: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Update(context.Background(), u.ID, ports.ProfileUpdateInput{Email: strPtr("ivy@example.com")}); !errors.Is(err, domain.ErrDuplicateIdentifier) {
		t.Fatalf("taken email: expected ErrDuplicateIdentifier, got %v", err)
	}
	if _, err := svc.Update(context.Background(), "missing", ports.ProfileUpdateInput{Username: strPtr("x")}); !errors.Is(err, domain.ErrPrincipalNotFound) {
		t.Fatalf("missing principal: expected ErrPrincipalNotFound, got %v", err)
	}
}
