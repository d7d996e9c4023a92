package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

// PrincipalRepository implements ports.PrincipalRepository.
type PrincipalRepository struct {
	store *Store
}

const principalColumns = `id, kind, username, email, password_hash, created_at, updated_at`

func (r *PrincipalRepository) Create(ctx context.Context, p *domain.Principal) error {
	_, err := r.store.exec(ctx,
		`INSERT INTO principals (`+principalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Kind), p.Username, nullableEmail(p.Email), p.PasswordHash,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateIdentifier
		}
		return fmt.Errorf("sqlstore.PrincipalRepository.Create: %w", err)
	}
	return nil
}

func (r *PrincipalRepository) FindByLogin(ctx context.Context, kind domain.Kind, identifier string) (*domain.Principal, error) {
	column := "email"
	if kind == domain.KindAdmin {
		column = "username"
	}
	row := r.store.queryRow(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE kind = ? AND `+column+` = ?`,
		string(kind), identifier,
	)
	p, err := scanPrincipal(row)
	if err != nil {
		return nil, fmt.Errorf("sqlstore.PrincipalRepository.FindByLogin: %w", err)
	}
	return p, nil
}

func (r *PrincipalRepository) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	row := r.store.queryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = ?`, id)
	p, err := scanPrincipal(row)
	if err != nil {
		return nil, fmt.Errorf("sqlstore.PrincipalRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *PrincipalRepository) ExistsKind(ctx context.Context, kind domain.Kind) (bool, error) {
	var n int
	err := r.store.queryRow(ctx, `SELECT COUNT(*) FROM principals WHERE kind = ?`, string(kind)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlstore.PrincipalRepository.ExistsKind: %w", err)
	}
	return n > 0, nil
}

// Update writes only the fields set in upd and bumps updated_at.
func (r *PrincipalRepository) Update(ctx context.Context, id string, upd ports.PrincipalUpdate) (*domain.Principal, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if upd.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *upd.Username)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, nullableEmail(*upd.Email))
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *upd.PasswordHash)
	}
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)

	res, err := r.store.exec(ctx, `UPDATE principals SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("sqlstore.PrincipalRepository.Update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrPrincipalNotFound
	}
	return r.FindByID(ctx, id)
}

func scanPrincipal(row *sql.Row) (*domain.Principal, error) {
	var (
		p                    domain.Principal
		kind                 string
		email                sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &kind, &p.Username, &email, &p.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, err
	}
	p.Kind = domain.Kind(kind)
	p.Email = email.String
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}

// nullableEmail stores admins' missing email as NULL so the UNIQUE index
// does not collide on empty strings.
func nullableEmail(email string) sql.NullString {
	return sql.NullString{String: email, Valid: email != ""}
}
