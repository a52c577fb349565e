package pgpackages

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/apperr"
	"github.com/BearBump/ParcelPortal/internal/models"
)

const packageColumns = `
  id::text, tracking_code,
  sender_name, recipient_name, recipient_email, recipient_phone, recipient_address,
  current_location, destination, estimated_delivery,
  weight, dimensions, service_type, status,
  created_at, updated_at`

func scanPackage(row pgx.Row) (*models.Package, error) {
	var p models.Package
	if err := row.Scan(
		&p.ID, &p.TrackingCode,
		&p.SenderName, &p.RecipientName, &p.RecipientEmail, &p.RecipientPhone, &p.RecipientAddress,
		&p.CurrentLocation, &p.Destination, &p.EstimatedDelivery,
		&p.Weight, &p.Dimensions, &p.ServiceType, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM packages WHERE tracking_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check tracking code")
	}
	return exists, nil
}

func (s *Storage) CreatePackage(ctx context.Context, p *models.Package) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO packages (
  id, tracking_code,
  sender_name, recipient_name, recipient_email, recipient_phone, recipient_address,
  current_location, destination, estimated_delivery,
  weight, dimensions, service_type, status,
  created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`, p.ID, p.TrackingCode,
		p.SenderName, p.RecipientName, p.RecipientEmail, p.RecipientPhone, p.RecipientAddress,
		p.CurrentLocation, p.Destination, p.EstimatedDelivery,
		p.Weight, p.Dimensions, p.ServiceType, p.Status,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return wrapWrite(err, "insert package")
	}
	return nil
}

// GetPackageByID returns (nil, nil) when no package has that id.
func (s *Storage) GetPackageByID(ctx context.Context, id string) (*models.Package, error) {
	p, err := scanPackage(s.db.QueryRow(ctx, `SELECT`+packageColumns+` FROM packages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select package by id")
	}
	return p, nil
}

// GetPackageByTrackingCode returns (nil, nil) when the code is unknown.
func (s *Storage) GetPackageByTrackingCode(ctx context.Context, code string) (*models.Package, error) {
	p, err := scanPackage(s.db.QueryRow(ctx, `SELECT`+packageColumns+` FROM packages WHERE tracking_code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select package by tracking code")
	}
	return p, nil
}

func (s *Storage) ListPackages(ctx context.Context) ([]*models.Package, error) {
	rows, err := s.db.Query(ctx, `SELECT`+packageColumns+` FROM packages ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "select packages")
	}
	defer rows.Close()

	out := make([]*models.Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan package")
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// UpdatePackage applies the non-nil fields of upd and always bumps updated_at.
// Returns apperr.ErrNotFound when the id is unknown.
func (s *Storage) UpdatePackage(ctx context.Context, id string, upd models.PackageUpdate) (*models.Package, error) {
	updatedAt := upd.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	p, err := scanPackage(s.db.QueryRow(ctx, `
UPDATE packages
SET
  status = COALESCE($2, status),
  current_location = COALESCE($3, current_location),
  estimated_delivery = COALESCE($4, estimated_delivery),
  updated_at = $5
WHERE id = $1
RETURNING`+packageColumns,
		id, upd.Status, upd.CurrentLocation, upd.EstimatedDelivery, updatedAt.UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(apperr.ErrNotFound, "update package")
	}
	if err != nil {
		return nil, wrapWrite(err, "update package")
	}
	return p, nil
}

// DeletePackage fails with a foreign key error while events still reference it.
func (s *Storage) DeletePackage(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete package")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(apperr.ErrNotFound, "delete package")
	}
	return nil
}
