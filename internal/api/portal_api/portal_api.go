package portal_api

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BearBump/ParcelPortal/internal/models"
	"github.com/BearBump/ParcelPortal/internal/services/auth"
	"github.com/BearBump/ParcelPortal/internal/services/packages"
	"github.com/BearBump/ParcelPortal/internal/services/tracking"
)

const (
	tokenCookie = "admin-token"
	rateWindow  = time.Minute
)

type PackagesService interface {
	List(ctx context.Context) ([]*models.Package, error)
	Create(ctx context.Context, in models.PackageCreateInput) (*packages.Result, error)
	Update(ctx context.Context, id string, upd models.PackageUpdate) (*packages.Result, error)
	Delete(ctx context.Context, id string) error
}

type TrackingService interface {
	Track(ctx context.Context, code string) (*tracking.View, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	VerifyToken(token string) (*auth.Admin, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Options struct {
	// RateLimiter is optional; limits of zero disable the matching check.
	RateLimiter    RateLimiter
	LoginPerMinute int
	TrackPerMinute int

	SecureCookies bool
}

type PortalAPI struct {
	packages PackagesService
	tracking TrackingService
	auth     AuthService
	opts     Options
}

func New(pkgs PackagesService, trk TrackingService, au AuthService, opts Options) *PortalAPI {
	return &PortalAPI{packages: pkgs, tracking: trk, auth: au, opts: opts}
}

// Register mounts the public and admin routes on r.
func (a *PortalAPI) Register(r chi.Router) {
	r.With(a.rateLimit("login", a.opts.LoginPerMinute)).Post("/auth/login", a.login)
	r.Post("/auth/logout", a.logout)
	r.With(a.rateLimit("track", a.opts.TrackPerMinute)).Get("/track/{trackingCode}", a.track)

	r.Group(func(r chi.Router) {
		r.Use(a.requireAdmin)
		r.Get("/statuses", a.listStatuses)
		r.Get("/packages", a.listPackages)
		r.Post("/packages", a.createPackage)
		r.Put("/packages/{id}", a.updatePackage)
		r.Delete("/packages/{id}", a.deletePackage)
	})
}
