package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/country-catalog/internal/core/config"
	"github.com/mohammed-shakir/country-catalog/internal/core/httpclient"
	"github.com/mohammed-shakir/country-catalog/internal/core/observability"
	"github.com/mohammed-shakir/country-catalog/internal/core/router"
	"github.com/mohammed-shakir/country-catalog/internal/core/server"
	"github.com/mohammed-shakir/country-catalog/internal/core/upstream"
	"github.com/mohammed-shakir/country-catalog/internal/detail"
	"github.com/mohammed-shakir/country-catalog/internal/events"
	"github.com/mohammed-shakir/country-catalog/internal/logger"
	"github.com/mohammed-shakir/country-catalog/internal/metrics"
	"github.com/mohammed-shakir/country-catalog/internal/query"
	"github.com/mohammed-shakir/country-catalog/internal/session"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address (overrides ADDR)")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "countries",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)
	slog.SetDefault(appLog)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting countries server",
		"addr", cfg.Addr,
		"version", Version,
		"upstream", cfg.CountriesAPIURL,
		"session_backend", cfg.Session.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	up, err := upstream.New(appLog, httpclient.NewOutbound(cfg.UpstreamTimeout), cfg.CountriesAPIURL)
	if err != nil {
		appLog.Error("failed to initialize upstream client", "err", err)
		return 1
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		appLog.Error("session store setup failed", "err", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	var sink events.Sink = events.Nop{}
	if cfg.Events.Enabled {
		pub, err := events.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic, cfg.Events.Queue, appLog)
		if err != nil {
			appLog.Error("events publisher setup failed", "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("events publisher close", "err", err)
			}
		}()
		sink = pub
	}

	engine, err := query.NewEngine(cfg.ViewCacheSize)
	if err != nil {
		appLog.Error("query engine setup failed", "err", err)
		return 1
	}

	mgr := session.NewManager(store, up, session.ManagerOptions{
		Logger:      appLog,
		Events:      sink,
		LoadTimeout: cfg.CatalogLoadTimeout,
	})
	api := router.New(appLog, mgr, engine, detail.New(up, appLog), sink)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled {
		msrv, err := newMetricsServer(cfg)
		if err != nil {
			appLog.Error("metrics setup failed", "err", err)
			return 1
		}
		g.Go(func() error { return serveMetrics(gctx, msrv, cfg, appLog) })
	}
	g.Go(func() error {
		return server.Run(gctx, cfg, appLog, server.NewHandler(appLog, api, mgr))
	})

	err = g.Wait()
	mgr.Wait()
	if err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func newStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case session.RedisBackend:
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return session.NewRedisStore(pctx, cfg.Session.RedisAddr, cfg.Session.TTL)
	case session.MemoryBackend, "":
		return session.NewMemoryStore(cfg.Session.MaxEntries, cfg.Session.TTL), nil
	default:
		return nil, errors.New("unknown SESSION_BACKEND " + cfg.Session.Backend)
	}
}

func newMetricsServer(cfg config.Config) (*http.Server, error) {
	p, err := metrics.Init(metrics.Config{
		Enabled: true,
		Addr:    cfg.Metrics.Addr,
		Path:    cfg.Metrics.Path,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, p.Handler())

	return &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

// serveMetrics blocks until ctx is done or the listener fails.
func serveMetrics(ctx context.Context, srv *http.Server, cfg config.Config, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics listening", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics shutdown error", "err", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	}
}
