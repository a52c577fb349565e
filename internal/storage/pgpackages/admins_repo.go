package pgpackages

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/models"
)

// GetAdminByEmail matches email case-insensitively; (nil, nil) when absent.
func (s *Storage) GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := s.db.QueryRow(ctx, `
SELECT id::text, email, password_hash, full_name, created_at, updated_at
FROM admin_users
WHERE lower(email) = lower($1)
`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select admin")
	}
	return &u, nil
}

// UpsertAdmin inserts u or, for an existing email, replaces its hash and name.
func (s *Storage) UpsertAdmin(ctx context.Context, u *models.AdminUser) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO admin_users (id, email, password_hash, full_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT ((lower(email)))
DO UPDATE SET password_hash = EXCLUDED.password_hash, full_name = EXCLUDED.full_name, updated_at = EXCLUDED.updated_at
`, u.ID, u.Email, u.PasswordHash, u.FullName, u.UpdatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "upsert admin")
	}
	return nil
}
