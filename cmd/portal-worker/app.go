package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/config"
	"github.com/BearBump/ParcelPortal/internal/broker/kafka"
	"github.com/BearBump/ParcelPortal/internal/cache"
	"github.com/BearBump/ParcelPortal/internal/cache/rediscache"
	"github.com/BearBump/ParcelPortal/internal/services/tracking"
	"github.com/BearBump/ParcelPortal/internal/services/viewsync"
	"github.com/BearBump/ParcelPortal/internal/storage/pgpackages"
)

const consumeRetryDelay = time.Second

type kafkaConsumer interface {
	Consume(ctx context.Context, handle kafka.Handler) error
}

type workerFactories struct {
	newStorage  func(cfg *config.Config) (repo tracking.Repository, closeFn func(), err error)
	newCache    func(cfg *config.Config) (c cache.BytesCache, closeFn func(), err error)
	newConsumer func(cfg *config.Config, topic, group string) (c kafkaConsumer, closeFn func(), err error)
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (tracking.Repository, func(), error) {
			dsn := cfg.PostgresDSN()
			if dsn == "" {
				return nil, nil, errors.New("worker requires database settings")
			}
			st, err := pgpackages.New(dsn)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newCache: func(cfg *config.Config) (cache.BytesCache, func(), error) {
			addr := cfg.RedisAddr()
			if addr == "" {
				return nil, nil, errors.New("worker requires redis settings")
			}
			rc := rediscache.New(addr)
			return rc, func() { _ = rc.Close() }, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) (kafkaConsumer, func(), error) {
			brokers := cfg.KafkaBrokers()
			if len(brokers) == 0 {
				return nil, nil, errors.New("worker requires kafka settings")
			}
			c := kafka.NewConsumer(brokers, topic, group)
			return c, func() { _ = c.Close() }, nil
		},
	}
}

func RunPortalWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	topic := cfg.PackageChangedTopic()
	group := cfg.Portal.KafkaConsumerGroup
	if group == "" {
		group = "portal-worker"
	}
	viewTTL := time.Duration(cfg.Portal.TrackingViewTTLSeconds) * time.Second
	if viewTTL <= 0 {
		viewTTL = 5 * time.Minute
	}

	repo, closeDB, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeDB != nil {
		defer closeDB()
	}
	c, closeCache, err := f.newCache(cfg)
	if err != nil {
		return err
	}
	if closeCache != nil {
		defer closeCache()
	}
	consumer, closeConsumer, err := f.newConsumer(cfg, topic, group)
	if err != nil {
		return err
	}
	if closeConsumer != nil {
		defer closeConsumer()
	}

	syncer := viewsync.New(tracking.New(repo, c, viewTTL))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr: cfg.Portal.WorkerHTTPAddr,
			syncer:   syncer,
			cfg:      cfg,
			ready:    readiness(repo, c),
		})
	}()

	consumeDone := make(chan struct{})
	go func() {
		defer close(consumeDone)
		consumeLoop(ctx, consumer, syncer, topic, group)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case runErr = <-httpErr:
	}
	cancel()
	<-consumeDone
	return runErr
}

type pinger interface {
	Ping(ctx context.Context) error
}

// readiness pings every backend that supports it.
func readiness(backends ...any) func(ctx context.Context) error {
	var pingers []pinger
	for _, b := range backends {
		if p, ok := b.(pinger); ok {
			pingers = append(pingers, p)
		}
	}
	return func(ctx context.Context) error {
		for _, p := range pingers {
			if err := p.Ping(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// consumeLoop restarts the consumer after broker errors until ctx is done.
func consumeLoop(ctx context.Context, consumer kafkaConsumer, syncer *viewsync.Syncer, topic, group string) {
	slog.Info("kafka consumer started", "topic", topic, "group", group)
	for {
		err := consumer.Consume(ctx, syncer.Handle)
		if ctx.Err() != nil {
			return
		}
		slog.Error("kafka consume", "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(consumeRetryDelay):
		}
	}
}
