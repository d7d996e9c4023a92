package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// PropertyRepository implements ports.PropertyRepository.
type PropertyRepository struct {
	store *Store
}

const propertyColumns = `id, slug, title, description, price, address, city, neighborhood,
	bedrooms, bathrooms, area, images, property_type, status, maintenance_fee,
	requirements, contact_info, location_coordinates, owner_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PropertyRepository) List(ctx context.Context, f ports.PropertyFilter) ([]*domain.Property, error) {
	var (
		where []string
		args  []any
	)
	if f.MinPrice > 0 {
		where = append(where, "price >= ?")
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		where = append(where, "price <= ?")
		args = append(args, f.MaxPrice)
	}
	if f.MinBedrooms > 0 {
		where = append(where, "bedrooms >= ?")
		args = append(args, f.MinBedrooms)
	}
	if f.Neighborhood != "" {
		where = append(where, `LOWER(neighborhood) LIKE LOWER(?) ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(f.Neighborhood)+"%")
	}
	if f.PropertyType != "" {
		where = append(where, "property_type = ?")
		args = append(args, string(f.PropertyType))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, f.OwnerID)
	}

	q := `SELECT ` + propertyColumns + ` FROM properties`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.store.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore.PropertyRepository.List: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore.PropertyRepository.List: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore.PropertyRepository.List: %w", err)
	}
	return out, nil
}

func (r *PropertyRepository) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	row := r.store.queryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("sqlstore.PropertyRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	images, err := encodeImages(p.Images)
	if err != nil {
		return err
	}
	_, err = r.store.exec(ctx,
		`INSERT INTO properties (`+propertyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Title, p.Description, p.Price, p.Address, p.City, p.Neighborhood,
		p.Bedrooms, p.Bathrooms, p.Area, images, string(p.PropertyType), string(p.Status), p.MaintenanceFee,
		p.Requirements, p.ContactInfo, p.LocationCoordinates, p.OwnerID,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlstore.PropertyRepository.Create: %w", err)
	}
	return nil
}

// Update writes only the columns set in patch, so a concurrent toggle is not
// overwritten with a stale status. owner_id is never part of the statement.
func (r *PropertyRepository) Update(ctx context.Context, id string, patch domain.PropertyPatch) (*domain.Property, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
		set("slug", domain.NewSlug(*patch.Title))
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.Address != nil {
		set("address", *patch.Address)
	}
	if patch.City != nil {
		set("city", *patch.City)
	}
	if patch.Neighborhood != nil {
		set("neighborhood", *patch.Neighborhood)
	}
	if patch.Bedrooms != nil {
		set("bedrooms", *patch.Bedrooms)
	}
	if patch.Bathrooms != nil {
		set("bathrooms", *patch.Bathrooms)
	}
	if patch.Area != nil {
		set("area", *patch.Area)
	}
	if patch.Images != nil {
		images, err := encodeImages(*patch.Images)
		if err != nil {
			return nil, err
		}
		set("images", images)
	}
	if patch.PropertyType != nil {
		set("property_type", string(*patch.PropertyType))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.MaintenanceFee != nil {
		set("maintenance_fee", *patch.MaintenanceFee)
	}
	if patch.Requirements != nil {
		set("requirements", *patch.Requirements)
	}
	if patch.ContactInfo != nil {
		set("contact_info", *patch.ContactInfo)
	}
	if patch.LocationCoordinates != nil {
		set("location_coordinates", *patch.LocationCoordinates)
	}
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}
	set("updated_at", formatTime(time.Now()))
	args = append(args, id)

	res, err := r.store.exec(ctx, `UPDATE properties SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore.PropertyRepository.Update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrPropertyNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *PropertyRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.store.exec(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlstore.PropertyRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlstore.PropertyRepository.Delete: %w", err)
	}
	return n > 0, nil
}

// ToggleStatus flips the status inside a single UPDATE so concurrent toggles
// never lose a flip.
func (r *PropertyRepository) ToggleStatus(ctx context.Context, id string) (bool, error) {
	res, err := r.store.exec(ctx,
		`UPDATE properties
		 SET status = CASE WHEN status = 'active' THEN 'paused' ELSE 'active' END,
		     updated_at = ?
		 WHERE id = ?`,
		formatTime(time.Now()), id,
	)
	if err != nil {
		return false, fmt.Errorf("sqlstore.PropertyRepository.ToggleStatus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlstore.PropertyRepository.ToggleStatus: %w", err)
	}
	return n > 0, nil
}

func scanProperty(row rowScanner) (*domain.Property, error) {
	var (
		p                     domain.Property
		images, ptype, status string
		createdAt, updatedAt  string
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Description, &p.Price, &p.Address, &p.City, &p.Neighborhood,
		&p.Bedrooms, &p.Bathrooms, &p.Area, &images, &ptype, &status, &p.MaintenanceFee,
		&p.Requirements, &p.ContactInfo, &p.LocationCoordinates, &p.OwnerID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PropertyType = domain.PropertyType(ptype)
	p.Status = domain.PropertyStatus(status)
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("decoding images: %w", err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encoding images: %w", err)
	}
	return string(b), nil
}
