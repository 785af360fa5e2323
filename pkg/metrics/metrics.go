package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "net/http/pprof"

	"github.com/devcabi-net/mirage-community-sub000/pkg/env"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunServer serves the prometheus metrics endpoint plus version and liveness
// probes on a dedicated listener, separate from any application API. An empty
// addr disables the server. Blocks until ctx is cancelled.
func RunServer(ctx context.Context, cancel context.CancelFunc, addr string) error {
	if addr == "" {
		slog.Info("metrics server disabled")
		return nil
	}

	defer cancel()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/version", env.VersionHandler)
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, "OK")
	})
	mux.Handle("/debug/", http.DefaultServeMux) // pprof

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down metrics server", "err", err)
		}
	}()

	slog.Info("metrics server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
