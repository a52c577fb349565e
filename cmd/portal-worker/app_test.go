package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/ParcelPortal/config"
	"github.com/BearBump/ParcelPortal/internal/broker/kafka"
	"github.com/BearBump/ParcelPortal/internal/broker/messages"
	"github.com/BearBump/ParcelPortal/internal/cache"
	"github.com/BearBump/ParcelPortal/internal/cache/rediscache"
	"github.com/BearBump/ParcelPortal/internal/models"
	"github.com/BearBump/ParcelPortal/internal/services/tracking"
	"github.com/BearBump/ParcelPortal/internal/services/viewsync"
	"github.com/BearBump/ParcelPortal/internal/storage/memstore"
)

type fakeConsumer struct {
	msgs [][]byte
}

func (c *fakeConsumer) Consume(ctx context.Context, handle kafka.Handler) error {
	for _, m := range c.msgs {
		if err := handle(ctx, nil, m); err != nil {
			return err
		}
	}
	c.msgs = nil
	<-ctx.Done()
	return ctx.Err()
}

func TestDefaultWorkerFactories_RequireSettings(t *testing.T) {
	f := defaultWorkerFactories()
	cfg := &config.Config{}

	_, _, err := f.newStorage(cfg)
	require.Error(t, err)
	_, _, err = f.newCache(cfg)
	require.Error(t, err)
	_, _, err = f.newConsumer(cfg, "t", "g")
	require.Error(t, err)
}

func TestDefaultWorkerFactories_CacheAndConsumer_NonNil(t *testing.T) {
	f := defaultWorkerFactories()
	cfg := &config.Config{
		Kafka: config.KafkaConfig{Host: "localhost", Port: 9092},
		Redis: config.RedisConfig{Host: "localhost", Port: 6379},
	}

	c, closeCache, err := f.newCache(cfg)
	require.NoError(t, err)
	require.NotNil(t, c)
	closeCache()

	cons, closeCons, err := f.newConsumer(cfg, "t", "g")
	require.NoError(t, err)
	require.NotNil(t, cons)
	closeCons()
}

func TestRunPortalWorker_ContextCanceled(t *testing.T) {
	var closed []string
	f := workerFactories{
		newStorage: func(cfg *config.Config) (tracking.Repository, func(), error) {
			return memstore.New(), func() { closed = append(closed, "db") }, nil
		},
		newCache: func(cfg *config.Config) (cache.BytesCache, func(), error) {
			return nil, func() { closed = append(closed, "cache") }, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) (kafkaConsumer, func(), error) {
			require.Equal(t, "package.changed", topic)
			require.Equal(t, "portal-worker", group)
			return &fakeConsumer{}, func() { closed = append(closed, "consumer") }, nil
		},
	}
	cfg := &config.Config{Portal: config.PortalConfig{WorkerHTTPAddr: "127.0.0.1:0"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunPortalWorker(ctx, cfg, f)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{"consumer", "cache", "db"}, closed)
}

func TestRunPortalWorker_RefreshesCachedView(t *testing.T) {
	mr := miniredis.RunT(t)
	store := memstore.New()
	now := time.Now().UTC()
	require.NoError(t, store.CreatePackage(context.Background(), &models.Package{
		ID: "p1", TrackingCode: "CLAAAA000001", Status: models.StatusOrderShipped, CreatedAt: now, UpdatedAt: now,
	}))

	msg, err := json.Marshal(messages.PackageChanged{Kind: messages.PackageUpdated, PackageID: "p1", TrackingCode: "CLAAAA000001"})
	require.NoError(t, err)

	f := workerFactories{
		newStorage: func(cfg *config.Config) (tracking.Repository, func(), error) {
			return store, nil, nil
		},
		newCache: func(cfg *config.Config) (cache.BytesCache, func(), error) {
			rc := rediscache.New(mr.Addr())
			return rc, func() { _ = rc.Close() }, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) (kafkaConsumer, func(), error) {
			return &fakeConsumer{msgs: [][]byte{msg}}, nil, nil
		},
	}
	cfg := &config.Config{Portal: config.PortalConfig{WorkerHTTPAddr: "127.0.0.1:0", TrackingViewTTLSeconds: 60}}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- RunPortalWorker(ctx, cfg, f) }()

	require.Eventually(t, func() bool {
		return mr.Exists("track:CLAAAA000001:view")
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 60*time.Second, mr.TTL("track:CLAAAA000001:view"))

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestWorkerHTTPServer_Stats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	syncer := viewsync.New(tracking.New(memstore.New(), nil, 0))
	require.NoError(t, syncer.Handle(ctx, nil, []byte("garbage")))

	errCh := make(chan error, 1)
	go func() {
		errCh <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr: "127.0.0.1:0",
			onListen: func(addr string) { addrCh <- addr },
			syncer:   syncer,
			cfg:      &config.Config{Portal: config.PortalConfig{KafkaConsumerGroup: "g"}},
		})
	}()
	base := "http://" + <-addrCh

	resp, err := http.Get(base + "/stats")
	require.NoError(t, err)
	var st viewsync.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	_ = resp.Body.Close()
	require.Equal(t, int64(1), st.TotalReceived)
	require.Equal(t, int64(1), st.TotalSkipped)

	resp, err = http.Get(base + "/config")
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()
	require.Equal(t, "package.changed", out["topic"])
	require.Equal(t, "g", out["consumerGroup"])

	resp, err = http.Get(base + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestReadiness_PingsBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := rediscache.New(mr.Addr())
	t.Cleanup(func() { _ = rc.Close() })

	ready := readiness(memstore.New(), rc, nil)
	require.NoError(t, ready(context.Background()))

	mr.Close()
	require.ErrorContains(t, ready(context.Background()), "redis ping")
}

func TestWorkerHTTPServer_NotReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr: "127.0.0.1:0",
			onListen: func(addr string) { addrCh <- addr },
			ready:    func(context.Context) error { return errors.New("ping pg: connection refused") },
		})
	}()

	resp, err := http.Get("http://" + <-addrCh + "/readyz")
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, "not ready", out["status"])
	require.Contains(t, out["error"], "connection refused")

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}
