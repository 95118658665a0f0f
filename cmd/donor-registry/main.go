// Command donor-registry serves the donor registry JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"donorregistry/internal/adapters/httpapi"
	"donorregistry/internal/config"
	"donorregistry/internal/core"
	"donorregistry/internal/infra/logging"
	"donorregistry/internal/infra/metrics"
	"donorregistry/internal/infra/tracing"
	"donorregistry/internal/kv"
)

const serviceName = "donor-registry"

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "%s takes no arguments; configure it with DONOR_REGISTRY_* variables\n", serviceName)
		return 2
	}
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "listen %s: %v\n", cfg.Addr, err)
		return 1
	}
	if err := serve(ctx, cfg, listener, stdout, prometheus.NewRegistry()); err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
		return 1
	}
	return 0
}

// serve runs the API on listener until ctx is cancelled, then drains in-flight
// requests within cfg.ShutdownTimeout. serve owns listener and closes it on
// every return path.
func serve(ctx context.Context, cfg config.Config, listener net.Listener, logOut io.Writer, reg *prometheus.Registry) error {
	defer func() { _ = listener.Close() }()
	zl := logging.NewWithWriter(logOut, cfg.Env, cfg.LogLevel)
	logger := logging.NewAdapter(zl)

	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	slots, err := kv.Open(ctx, cfg.KV())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := slots.Close(); err != nil {
			logger.Warn("close storage", "error", err)
		}
	}()

	rec := metrics.New(reg)
	records := core.NewSlotRecordStore(slots,
		core.WithSlotKey(cfg.SlotKey),
		core.WithSeed(cfg.Seed),
		core.WithStoreLogger(logger),
	)
	svc := core.NewService(records,
		core.WithLogger(logger),
		core.WithMetricsRecorder(rec),
		core.WithStatsObserver(rec),
		core.WithTracer(tracing.New(nil)),
	)
	// Load once at startup so seeding and storage errors surface before
	// the first request.
	if _, err := svc.Current(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	srv := &http.Server{
		Handler:           httpapi.NewRouter(httpapi.New(svc, logger), reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", listener.Addr().String(), "driver", string(slots.Driver()), "key", records.Key())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
