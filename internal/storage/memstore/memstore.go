// Package memstore is an in-process implementation of the package, event and
// admin repositories. It backs the API when no database is configured and
// mirrors the constraints of the Postgres schema.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/apperr"
	"github.com/BearBump/ParcelPortal/internal/models"
)

var ErrEventsReferencePackage = errors.New("tracking events still reference package")

type Store struct {
	mu       sync.RWMutex
	packages map[string]*models.Package
	byCode   map[string]string
	events   map[string][]*models.TrackingEvent
	admins   map[string]*models.AdminUser
}

func New() *Store {
	return &Store{
		packages: make(map[string]*models.Package),
		byCode:   make(map[string]string),
		events:   make(map[string][]*models.TrackingEvent),
		admins:   make(map[string]*models.AdminUser),
	}
}

func (s *Store) TrackingCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byCode[code]
	return ok, nil
}

func (s *Store) CreatePackage(_ context.Context, p *models.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCode[p.TrackingCode]; ok {
		return errors.Wrap(apperr.ErrConflict, "insert package")
	}
	if _, ok := s.packages[p.ID]; ok {
		return errors.Wrap(apperr.ErrConflict, "insert package")
	}
	s.packages[p.ID] = clonePackage(p)
	s.byCode[p.TrackingCode] = p.ID
	return nil
}

func (s *Store) GetPackageByID(_ context.Context, id string) (*models.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packages[id]
	if !ok {
		return nil, nil
	}
	return clonePackage(p), nil
}

func (s *Store) GetPackageByTrackingCode(_ context.Context, code string) (*models.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, nil
	}
	return clonePackage(s.packages[id]), nil
}

func (s *Store) ListPackages(_ context.Context) ([]*models.Package, error) {
	s.mu.RLock()
	out := make([]*models.Package, 0, len(s.packages))
	for _, p := range s.packages {
		out = append(out, clonePackage(p))
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdatePackage(_ context.Context, id string, upd models.PackageUpdate) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packages[id]
	if !ok {
		return nil, errors.Wrap(apperr.ErrNotFound, "update package")
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.CurrentLocation != nil {
		p.CurrentLocation = *upd.CurrentLocation
	}
	if upd.EstimatedDelivery != nil {
		p.EstimatedDelivery = *upd.EstimatedDelivery
	}
	p.UpdatedAt = upd.UpdatedAt.UTC()
	return clonePackage(p), nil
}

func (s *Store) DeletePackage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packages[id]
	if !ok {
		return errors.Wrap(apperr.ErrNotFound, "delete package")
	}
	if len(s.events[id]) > 0 {
		return errors.Wrap(ErrEventsReferencePackage, "delete package")
	}
	delete(s.byCode, p.TrackingCode)
	delete(s.packages, id)
	return nil
}

func (s *Store) InsertTrackingEvent(_ context.Context, e *models.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[e.PackageID]; !ok {
		return errors.Errorf("insert tracking event: package %s does not exist", e.PackageID)
	}
	cp := *e
	s.events[e.PackageID] = append(s.events[e.PackageID], &cp)
	return nil
}

func (s *Store) ListTrackingEvents(_ context.Context, packageID string) ([]*models.TrackingEvent, error) {
	s.mu.RLock()
	src := s.events[packageID]
	out := make([]*models.TrackingEvent, 0, len(src))
	for _, e := range src {
		cp := *e
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EventDate != out[j].EventDate {
			return out[i].EventDate < out[j].EventDate
		}
		if out[i].EventTime != out[j].EventTime {
			return out[i].EventTime < out[j].EventTime
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteTrackingEvents(_ context.Context, packageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, packageID)
	return nil
}

func (s *Store) GetAdminByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.admins[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UpsertAdmin(_ context.Context, u *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if cur, ok := s.admins[key]; ok {
		cur.PasswordHash = u.PasswordHash
		cur.FullName = u.FullName
		cur.UpdatedAt = u.UpdatedAt
		return nil
	}
	cp := *u
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	s.admins[key] = &cp
	return nil
}

func clonePackage(p *models.Package) *models.Package {
	cp := *p
	cp.RecipientEmail = cloneString(p.RecipientEmail)
	cp.RecipientPhone = cloneString(p.RecipientPhone)
	cp.Weight = cloneString(p.Weight)
	cp.Dimensions = cloneString(p.Dimensions)
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
