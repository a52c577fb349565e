package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/apperr"
	"github.com/BearBump/ParcelPortal/internal/cache"
	"github.com/BearBump/ParcelPortal/internal/models"
)

// mutationGuardTTL bounds how long after an invalidation Track results are
// not kept in the cache. It must exceed the time a Track load can take.
const mutationGuardTTL = 10 * time.Second

type Repository interface {
	GetPackageByTrackingCode(ctx context.Context, code string) (*models.Package, error)
	ListTrackingEvents(ctx context.Context, packageID string) ([]*models.TrackingEvent, error)
}

type Service struct {
	repo    Repository
	cache   cache.BytesCache
	viewTTL time.Duration
}

// New returns the aggregator. A nil cache or non-positive ttl disables caching.
func New(repo Repository, c cache.BytesCache, viewTTL time.Duration) *Service {
	return &Service{repo: repo, cache: c, viewTTL: viewTTL}
}

// NormalizeCode trims and upper-cases a user-supplied tracking code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) Track(ctx context.Context, code string) (*View, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, errors.Wrap(apperr.ErrNotFound, "track")
	}

	if s.cacheEnabled() {
		b, ok, err := s.cache.Get(ctx, viewKey(code))
		if err == nil && ok {
			var v View
			if json.Unmarshal(b, &v) == nil {
				return &v, nil
			}
		}
	}

	v, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	s.store(ctx, code, v)
	return v, nil
}

// Refresh rebuilds the cached view from the store, dropping it when the
// package no longer exists.
func (s *Service) Refresh(ctx context.Context, code string) error {
	if !s.cacheEnabled() {
		return nil
	}
	code = NormalizeCode(code)
	v, err := s.load(ctx, code)
	if errors.Is(err, apperr.ErrNotFound) {
		return s.Invalidate(ctx, code)
	}
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal view")
	}
	return s.cache.Set(ctx, viewKey(code), b, s.viewTTL)
}

// Invalidate drops the cached view and marks the code as recently mutated so
// a Track that loaded before the mutation cannot write its view back.
func (s *Service) Invalidate(ctx context.Context, code string) error {
	if s.cache == nil {
		return nil
	}
	code = NormalizeCode(code)
	markErr := s.cache.Set(ctx, guardKey(code), []byte("1"), mutationGuardTTL)
	if err := s.cache.Delete(ctx, viewKey(code)); err != nil {
		return errors.Wrap(err, "delete view")
	}
	return errors.Wrap(markErr, "mark mutated")
}

func (s *Service) load(ctx context.Context, code string) (*View, error) {
	p, err := s.repo.GetPackageByTrackingCode(ctx, code)
	if err != nil {
		return nil, apperr.Storage("get package", err)
	}
	if p == nil {
		return nil, errors.Wrap(apperr.ErrNotFound, "track")
	}
	events, err := s.repo.ListTrackingEvents(ctx, p.ID)
	if err != nil {
		return nil, apperr.Storage("list tracking events", err)
	}
	return BuildView(p, events), nil
}

func (s *Service) store(ctx context.Context, code string, v *View) {
	if !s.cacheEnabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, viewKey(code), b, s.viewTTL); err != nil {
		slog.Warn("tracking view cache set failed", "tracking_code", code, "error", err.Error())
		return
	}
	// The guard is read after the write: an Invalidate racing with this Track
	// either deletes the view itself or leaves a guard we see here.
	if _, mutated, err := s.cache.Get(ctx, guardKey(code)); err != nil || mutated {
		if err := s.cache.Delete(ctx, viewKey(code)); err != nil {
			slog.Warn("tracking view cache delete failed", "tracking_code", code, "error", err.Error())
		}
	}
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.viewTTL > 0
}

func viewKey(code string) string {
	return fmt.Sprintf("track:%s:view", code)
}

func guardKey(code string) string {
	return fmt.Sprintf("track:%s:mutated", code)
}
