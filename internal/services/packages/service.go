package packages

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/apperr"
	"github.com/BearBump/ParcelPortal/internal/broker/messages"
	"github.com/BearBump/ParcelPortal/internal/models"
)

type Repository interface {
	TrackingCodeExists(ctx context.Context, code string) (bool, error)
	CreatePackage(ctx context.Context, p *models.Package) error
	GetPackageByID(ctx context.Context, id string) (*models.Package, error)
	ListPackages(ctx context.Context) ([]*models.Package, error)
	UpdatePackage(ctx context.Context, id string, upd models.PackageUpdate) (*models.Package, error)
	DeletePackage(ctx context.Context, id string) error
	InsertTrackingEvent(ctx context.Context, e *models.TrackingEvent) error
	DeleteTrackingEvents(ctx context.Context, packageID string) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// ViewInvalidator drops a cached public tracking view.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, trackingCode string) error
}

type Options struct {
	// CodePrefix is upper-cased so codes match normalized lookups.
	CodePrefix   string
	CodeAttempts int

	// Publisher and Views are optional.
	Publisher Publisher
	Topic     string
	Views     ViewInvalidator
}

// Result is the outcome of a create or update. EventRecorded is false when
// the package was written but its tracking event was not.
type Result struct {
	Package       *models.Package `json:"package"`
	EventRecorded bool            `json:"eventRecorded"`
}

type Service struct {
	repo     Repository
	validate *validator.Validate

	prefix   string
	attempts int

	publisher Publisher
	topic     string
	views     ViewInvalidator

	now     func() time.Time
	newCode func(now time.Time) string
}

func New(repo Repository, opts Options) *Service {
	s := &Service{
		repo:      repo,
		validate:  newValidator(),
		prefix:    strings.ToUpper(strings.TrimSpace(opts.CodePrefix)),
		attempts:  opts.CodeAttempts,
		publisher: opts.Publisher,
		topic:     opts.Topic,
		views:     opts.Views,
		now:       time.Now,
	}
	if s.prefix == "" {
		s.prefix = DefaultCodePrefix
	}
	if s.attempts <= 0 {
		s.attempts = DefaultCodeAttempts
	}
	s.newCode = func(now time.Time) string {
		return NewTrackingCode(s.prefix, now, rand.IntN)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]*models.Package, error) {
	out, err := s.repo.ListPackages(ctx)
	if err != nil {
		return nil, apperr.Storage("list packages", err)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in models.PackageCreateInput) (*Result, error) {
	in = trimCreate(in)
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}

	status := models.InitialStatus
	if in.Status != "" {
		status, _ = models.CanonicalStatus(in.Status)
	}
	serviceType := in.ServiceType
	if serviceType == "" {
		serviceType = models.DefaultServiceType
	}

	now := s.now().UTC()
	code, err := s.generateCode(ctx, now)
	if err != nil {
		return nil, err
	}

	p := &models.Package{
		ID:                uuid.NewString(),
		TrackingCode:      code,
		SenderName:        in.SenderName,
		RecipientName:     in.RecipientName,
		RecipientEmail:    in.RecipientEmail,
		RecipientPhone:    in.RecipientPhone,
		RecipientAddress:  in.RecipientAddress,
		CurrentLocation:   in.CurrentLocation,
		Destination:       in.Destination,
		EstimatedDelivery: in.EstimatedDelivery,
		Weight:            in.Weight,
		Dimensions:        in.Dimensions,
		ServiceType:       serviceType,
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	// A unique violation here means another request took the code after our
	// pre-check; it is reported, not retried.
	if err := s.repo.CreatePackage(ctx, p); err != nil {
		return nil, apperr.Storage("create package", err)
	}

	recorded := s.recordEvent(ctx, p, p.CurrentLocation, "Package picked up from "+p.CurrentLocation, now)
	s.publish(ctx, messages.PackageCreated, p, recorded, now)

	return &Result{Package: p, EventRecorded: recorded}, nil
}

func (s *Service) Update(ctx context.Context, id string, upd models.PackageUpdate) (*Result, error) {
	upd = trimUpdate(upd)
	if err := checkStruct(s.validate, upd); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrap(apperr.ErrNotFound, "update package")
	}
	if upd.Status != nil {
		canon, _ := models.CanonicalStatus(*upd.Status)
		upd.Status = &canon
	}

	now := s.now().UTC()
	upd.UpdatedAt = now

	p, err := s.repo.UpdatePackage(ctx, id, upd)
	if err != nil {
		return nil, apperr.Storage("update package", err)
	}

	recorded := true
	if upd.Status != nil {
		location := p.CurrentLocation
		if upd.CurrentLocation != nil {
			location = *upd.CurrentLocation
		}
		recorded = s.recordEvent(ctx, p, location, "Status updated to "+p.Status, now)
	}
	s.invalidate(ctx, p.TrackingCode)
	s.publish(ctx, messages.PackageUpdated, p, recorded, now)

	return &Result{Package: p, EventRecorded: recorded}, nil
}

// Delete removes the package's events and then the package. When the events
// cannot be removed the package is left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(apperr.ErrNotFound, "delete package")
	}
	p, err := s.repo.GetPackageByID(ctx, id)
	if err != nil {
		return apperr.Storage("get package", err)
	}
	if p == nil {
		return errors.Wrap(apperr.ErrNotFound, "delete package")
	}

	if err := s.repo.DeleteTrackingEvents(ctx, id); err != nil {
		return apperr.Storage("delete tracking events", err)
	}
	if err := s.repo.DeletePackage(ctx, id); err != nil {
		return apperr.Storage("delete package", err)
	}

	s.invalidate(ctx, p.TrackingCode)
	s.publish(ctx, messages.PackageDeleted, p, true, s.now().UTC())
	return nil
}

func (s *Service) generateCode(ctx context.Context, now time.Time) (string, error) {
	for i := 0; i < s.attempts; i++ {
		code := s.newCode(now)
		exists, err := s.repo.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", apperr.Storage("check tracking code", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.Wrap(apperr.ErrConflict, "generate tracking code")
}

// recordEvent appends a completed event. Failures are logged and reported
// through the return value only.
func (s *Service) recordEvent(ctx context.Context, p *models.Package, location, description string, at time.Time) bool {
	e := &models.TrackingEvent{
		ID:          uuid.NewString(),
		PackageID:   p.ID,
		EventDate:   at.Format("2006-01-02"),
		EventTime:   at.Format("15:04:05"),
		Location:    location,
		Status:      p.Status,
		Description: description,
		Completed:   true,
		CreatedAt:   at,
	}
	if err := s.repo.InsertTrackingEvent(ctx, e); err != nil {
		slog.Error("track event insert failed", "package_id", p.ID, "tracking_code", p.TrackingCode, "error", err.Error())
		return false
	}
	return true
}

func (s *Service) invalidate(ctx context.Context, code string) {
	if s.views == nil {
		return
	}
	if err := s.views.Invalidate(ctx, code); err != nil {
		slog.Warn("tracking view invalidate failed", "tracking_code", code, "error", err.Error())
	}
}

func (s *Service) publish(ctx context.Context, kind string, p *models.Package, recorded bool, at time.Time) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	b, err := json.Marshal(messages.PackageChanged{
		Kind:          kind,
		PackageID:     p.ID,
		TrackingCode:  p.TrackingCode,
		Status:        p.Status,
		ChangedAt:     at,
		EventRecorded: recorded,
	})
	if err != nil {
		slog.Error("marshal package change", "error", err.Error())
		return
	}
	if err := s.publisher.Publish(ctx, s.topic, []byte(p.TrackingCode), b); err != nil {
		slog.Warn("package change publish failed", "kind", kind, "tracking_code", p.TrackingCode, "error", err.Error())
	}
}
