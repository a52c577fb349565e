package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/ParcelPortal/config"
	portalapi "github.com/BearBump/ParcelPortal/internal/api/portal_api"
	"github.com/BearBump/ParcelPortal/internal/broker/kafka"
	"github.com/BearBump/ParcelPortal/internal/cache"
	"github.com/BearBump/ParcelPortal/internal/cache/rediscache"
	"github.com/BearBump/ParcelPortal/internal/services/auth"
	"github.com/BearBump/ParcelPortal/internal/services/packages"
	"github.com/BearBump/ParcelPortal/internal/services/tracking"
	"github.com/BearBump/ParcelPortal/internal/storage/memstore"
	"github.com/BearBump/ParcelPortal/internal/storage/pgpackages"
)

type portalStore interface {
	packages.Repository
	tracking.Repository
	auth.Repository
}

type portalAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    portalAPIOpts
	api     *portalapi.PortalAPI
	closers []func()
}

func mustBootstrapPortalAPI() *portalAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("parse config: %v", err))
	}

	httpAddr := cfg.Portal.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	viewTTL := time.Duration(cfg.Portal.TrackingViewTTLSeconds) * time.Second
	if viewTTL <= 0 {
		viewTTL = 5 * time.Minute
	}
	tokenTTL := time.Duration(cfg.Portal.JWTTTLHours) * time.Hour
	if tokenTTL <= 0 {
		tokenTTL = auth.DefaultTokenTTL
	}

	app := &portalAPIApp{}

	var store portalStore
	if dsn := cfg.PostgresDSN(); dsn != "" {
		st := mustOpenPostgresWithRetry(dsn, 60*time.Second)
		app.closers = append(app.closers, st.Close)
		store = st
	} else {
		slog.Warn("database host not configured, using in-memory store")
		store = memstore.New()
	}

	var viewCache cache.BytesCache
	var limiter portalapi.RateLimiter
	if addr := cfg.RedisAddr(); addr != "" {
		rc, rl, closeRedis := openRedis(addr)
		app.closers = append(app.closers, closeRedis)
		viewCache = rc
		limiter = rl
	}

	var publisher packages.Publisher
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		p := kafka.NewProducer(brokers)
		app.closers = append(app.closers, func() { _ = p.Close() })
		publisher = p
	}

	trackingSvc := tracking.New(store, viewCache, viewTTL)
	packagesSvc := packages.New(store, packages.Options{
		CodePrefix:   cfg.Portal.TrackingCodePrefix,
		CodeAttempts: cfg.Portal.TrackingCodeAttempts,
		Publisher:    publisher,
		Topic:        cfg.PackageChangedTopic(),
		Views:        trackingSvc,
	})
	authSvc, err := auth.New(store, cfg.Portal.JWTSecret, tokenTTL)
	if err != nil {
		panic(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app.ctx, app.cancel = ctx, cancel

	if cfg.Portal.AdminEmail != "" && cfg.Portal.AdminPassword != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.Portal.AdminEmail, cfg.Portal.AdminPassword, cfg.Portal.AdminFullName); err != nil {
			panic(fmt.Sprintf("seed admin: %v", err))
		}
		slog.Info("admin account ensured", "email", cfg.Portal.AdminEmail)
	}

	app.api = portalapi.New(packagesSvc, trackingSvc, authSvc, portalapi.Options{
		RateLimiter:    limiter,
		LoginPerMinute: cfg.Portal.LoginRateLimitPerMinute,
		TrackPerMinute: cfg.Portal.TrackRateLimitPerMinute,
		SecureCookies:  cfg.Portal.SecureCookies,
	})
	app.opts = portalAPIOpts{
		httpAddr:          httpAddr,
		swaggerPath:       swaggerPath,
		trustProxyHeaders: cfg.Portal.TrustProxyHeaders,
	}
	return app
}

// openRedis backs the view cache and the rate limiter with one client.
func openRedis(addr string) (*rediscache.RedisCache, *rediscache.RateLimiter, func()) {
	client := rediscache.NewClient(addr)
	return rediscache.NewWithClient(client), rediscache.NewRateLimiterWithClient(client), func() { _ = client.Close() }
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgpackages.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgpackages.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *portalAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *portalAPIApp) Run() error {
	return runPortalAPI(a.ctx, a.opts, a.api)
}
