package pgpackages

import (
	"context"

	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/models"
)

func (s *Storage) InsertTrackingEvent(ctx context.Context, e *models.TrackingEvent) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO tracking_events (
  id, package_id, event_date, event_time, location, status, description, completed, created_at
)
VALUES ($1, $2, $3::date, $4::time, $5, $6, $7, $8, $9)
`, e.ID, e.PackageID, e.EventDate, e.EventTime, e.Location, e.Status, e.Description, e.Completed, e.CreatedAt.UTC())
	if err != nil {
		return wrapWrite(err, "insert tracking event")
	}
	return nil
}

// ListTrackingEvents returns a package's events in (event_date, event_time) order.
func (s *Storage) ListTrackingEvents(ctx context.Context, packageID string) ([]*models.TrackingEvent, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  id::text, package_id::text,
  to_char(event_date, 'YYYY-MM-DD'), to_char(event_time, 'HH24:MI:SS'),
  location, status, description, completed, created_at
FROM tracking_events
WHERE package_id = $1
ORDER BY event_date ASC, event_time ASC, created_at ASC
`, packageID)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	out := make([]*models.TrackingEvent, 0)
	for rows.Next() {
		var e models.TrackingEvent
		if err := rows.Scan(
			&e.ID, &e.PackageID,
			&e.EventDate, &e.EventTime,
			&e.Location, &e.Status, &e.Description, &e.Completed, &e.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) DeleteTrackingEvents(ctx context.Context, packageID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM tracking_events WHERE package_id = $1`, packageID); err != nil {
		return errors.Wrap(err, "delete events")
	}
	return nil
}
