// Package viewsync keeps cached tracking views in step with package changes
// announced on the broker.
package viewsync

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/broker/messages"
)

type Views interface {
	Refresh(ctx context.Context, trackingCode string) error
	Invalidate(ctx context.Context, trackingCode string) error
}

type Syncer struct {
	views Views

	startedAtUnixNano   int64
	lastMessageUnixNano atomic.Int64
	totalReceived       atomic.Int64
	totalRefreshed      atomic.Int64
	totalInvalidated    atomic.Int64
	totalSkipped        atomic.Int64
	totalErrors         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(views Views) *Syncer {
	return &Syncer{
		views:             views,
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

type Stats struct {
	StartedAt        time.Time  `json:"startedAt"`
	LastMessageAt    *time.Time `json:"lastMessageAt,omitempty"`
	TotalReceived    int64      `json:"totalReceived"`
	TotalRefreshed   int64      `json:"totalRefreshed"`
	TotalInvalidated int64      `json:"totalInvalidated"`
	TotalSkipped     int64      `json:"totalSkipped"`
	TotalErrors      int64      `json:"totalErrors"`
	LastError        string     `json:"lastError,omitempty"`
}

func (s *Syncer) Stats() Stats {
	st := Stats{
		StartedAt:        time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalReceived:    s.totalReceived.Load(),
		TotalRefreshed:   s.totalRefreshed.Load(),
		TotalInvalidated: s.totalInvalidated.Load(),
		TotalSkipped:     s.totalSkipped.Load(),
		TotalErrors:      s.totalErrors.Load(),
	}
	if n := s.lastMessageUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastMessageAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

// Handle applies one package.changed message. Malformed messages and cache
// failures are counted and logged, never returned.
func (s *Syncer) Handle(ctx context.Context, _, value []byte) error {
	s.totalReceived.Add(1)
	s.lastMessageUnixNano.Store(time.Now().UTC().UnixNano())

	var msg messages.PackageChanged
	if err := json.Unmarshal(value, &msg); err != nil {
		s.totalSkipped.Add(1)
		s.fail(errors.Wrap(err, "decode package change"))
		return nil
	}
	if msg.TrackingCode == "" {
		s.totalSkipped.Add(1)
		slog.Warn("package change without tracking code", "package_id", msg.PackageID, "kind", msg.Kind)
		return nil
	}

	switch msg.Kind {
	case messages.PackageDeleted:
		if err := s.views.Invalidate(ctx, msg.TrackingCode); err != nil {
			s.fail(errors.Wrapf(err, "invalidate %s", msg.TrackingCode))
			return nil
		}
		s.totalInvalidated.Add(1)
	case messages.PackageCreated, messages.PackageUpdated:
		if err := s.views.Refresh(ctx, msg.TrackingCode); err != nil {
			s.fail(errors.Wrapf(err, "refresh %s", msg.TrackingCode))
			return nil
		}
		s.totalRefreshed.Add(1)
	default:
		s.totalSkipped.Add(1)
		slog.Warn("unknown package change kind", "kind", msg.Kind, "tracking_code", msg.TrackingCode)
	}
	return nil
}

func (s *Syncer) fail(err error) {
	s.totalErrors.Add(1)
	s.lastErrorMu.Lock()
	s.lastError = err.Error()
	s.lastErrorMu.Unlock()
	slog.Error("view sync", "error", err.Error())
}
