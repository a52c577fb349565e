package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BearBump/ParcelPortal/config"
	"github.com/BearBump/ParcelPortal/internal/services/viewsync"
)

const readyTimeout = 2 * time.Second

type workerHTTPOpts struct {
	httpAddr string
	onListen func(httpAddr string)

	syncer *viewsync.Syncer
	cfg    *config.Config
	// ready reports whether the worker's backends answer; nil means always ready.
	ready func(ctx context.Context) error
}

func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := opts.ready(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.syncer == nil {
			_, _ = w.Write([]byte(`{"error":"syncer not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.syncer.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		// Only operational settings; secrets stay out.
		out := map[string]any{
			"topic":                  opts.cfg.PackageChangedTopic(),
			"consumerGroup":          opts.cfg.Portal.KafkaConsumerGroup,
			"trackingViewTTLSeconds": opts.cfg.Portal.TrackingViewTTLSeconds,
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	err = srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}
