package messages

import "time"

const (
	PackageCreated = "created"
	PackageUpdated = "updated"
	PackageDeleted = "deleted"
)

// PackageChanged is published after every successful admin mutation.
type PackageChanged struct {
	Kind         string    `json:"kind"`
	PackageID    string    `json:"package_id"`
	TrackingCode string    `json:"tracking_code"`
	Status       string    `json:"status,omitempty"`
	ChangedAt    time.Time `json:"changed_at"`

	// EventRecorded is false when the accompanying tracking event could not be written.
	EventRecorded bool `json:"event_recorded"`
}
