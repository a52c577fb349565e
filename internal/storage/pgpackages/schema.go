package pgpackages

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS packages (
  id UUID PRIMARY KEY,
  tracking_code TEXT NOT NULL,
  sender_name TEXT NOT NULL,
  recipient_name TEXT NOT NULL,
  recipient_email TEXT NULL,
  recipient_phone TEXT NULL,
  recipient_address TEXT NOT NULL,
  current_location TEXT NOT NULL,
  destination TEXT NOT NULL,
  estimated_delivery TEXT NOT NULL,
  weight TEXT NULL,
  dimensions TEXT NULL,
  service_type TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_packages_tracking_code ON packages(tracking_code)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_created_at ON packages(created_at DESC)`,
		// No ON DELETE CASCADE: events are removed explicitly before their package.
		`
CREATE TABLE IF NOT EXISTS tracking_events (
  id UUID PRIMARY KEY,
  package_id UUID NOT NULL REFERENCES packages(id),
  event_date DATE NOT NULL,
  event_time TIME(0) NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  completed BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_package_order ON tracking_events(package_id, event_date, event_time)`,
		`
CREATE TABLE IF NOT EXISTS admin_users (
  id UUID PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_admin_users_email ON admin_users(lower(email))`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
