package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/dnscache"
	"go.opentelemetry.io/otel/trace"

	"github.com/eugener/playerlookup/internal/analytics"
	"github.com/eugener/playerlookup/internal/cache"
	"github.com/eugener/playerlookup/internal/config"
	"github.com/eugener/playerlookup/internal/hytale"
	"github.com/eugener/playerlookup/internal/pipeline"
	"github.com/eugener/playerlookup/internal/server"
	"github.com/eugener/playerlookup/internal/storage/sqlite"
	"github.com/eugener/playerlookup/internal/telemetry"
	"github.com/eugener/playerlookup/internal/transport"
	"github.com/eugener/playerlookup/internal/worker"
)

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	config.ApplyHytaleEnv(&cfg.Hytale)
	keys := config.LoadPlatformKeys()

	slog.Info("starting playerlookup", "version", version, "addr", cfg.Server.Addr)

	store, err := sqlite.New(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	dsnLog := cfg.Database.DSN
	if i := strings.IndexByte(dsnLog, '?'); i >= 0 {
		dsnLog = dsnLog[:i]
	}
	slog.Info("database opened", "dsn", dsnLog)

	// Shared DNS cache for every upstream HTTP client (Mojang, Steam, Xbox,
	// Hytale, and the off-box proxy).
	dnsResolver := &dnscache.Resolver{}
	go func() {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for range t.C {
			dnsResolver.Refresh(true)
		}
	}()

	// Edge response cache + platform profile cache facade (§4.C).
	var edgeCache *cache.Memory
	if cfg.Cache.Enabled {
		edgeCache, err = cache.NewMemory(cfg.Cache.MaxSize, cfg.Cache.DefaultTTL)
		if err != nil {
			return err
		}
		slog.Info("edge cache enabled", "max_size", cfg.Cache.MaxSize, "default_ttl", cfg.Cache.DefaultTTL)
	}
	cacheFacade := cache.New(store, edgeCache, func() bool { return keys.BypassCache })

	// Transports (§4.D).
	fetcher := transport.NewFetcher(dnsResolver)
	rawTLS := transport.NewRawTLS()
	proxyClient := &http.Client{Timeout: 10 * time.Second}
	containerProxy := transport.NewContainerProxy(proxyClient, cfg.Hytale.ProxyEndpoints)

	// Hytale singleton token + session pool manager (§4.G).
	hytaleHTTP := &http.Client{Timeout: 10 * time.Second}
	hytaleMgr := hytale.New(store, hytaleHTTP, hytale.Config{
		BaseURL:      cfg.Hytale.BaseURL,
		RefreshToken: cfg.Hytale.RefreshToken,
		ProfileUUID:  cfg.Hytale.ProfileUUID,
		MinPool:      cfg.Hytale.MinPool,
		MaxPool:      cfg.Hytale.MaxPool,
	})

	pipelineDeps := &pipeline.Deps{
		Cache:              cacheFacade,
		Fetch:              fetcher,
		RawTLS:             rawTLS,
		Proxy:              containerProxy,
		Hytale:             hytaleMgr,
		XboxAPIKey:         keys.XboxAPIKey,
		SteamAPIKeys:       keys.SteamAPIKeys,
		NodecraftAPIKey:    keys.NodecraftAPIKey,
		MinecraftProxyHost: cfg.Minecraft.ProxyHost,
	}

	// Prometheus metrics (§2 component O).
	var metrics *telemetry.Metrics
	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		promRegistry.MustRegister(collectors.NewGoCollector())
		metrics = telemetry.NewMetrics(promRegistry)
		metricsHandler = promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})
		slog.Info("prometheus metrics enabled")
	}

	// OpenTelemetry tracing (§2 component P).
	var tracer trace.Tracer
	var tracingShutdown func(context.Context) error
	if cfg.Telemetry.Tracing.Enabled {
		endpoint := cfg.Telemetry.Tracing.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		sampleRate := cfg.Telemetry.Tracing.SampleRate
		if sampleRate == 0 {
			sampleRate = 0.1
		}
		shutdown, err := telemetry.SetupTracing(context.Background(), endpoint, sampleRate)
		if err != nil {
			slog.Warn("tracing setup failed, continuing without tracing", "error", err)
		} else {
			tracingShutdown = shutdown
			tracer = telemetry.Tracer("playerlookup/server")
			slog.Info("opentelemetry tracing enabled", "endpoint", endpoint, "sample_rate", sampleRate)
		}
	}

	// Analytics sink (§4.J); ships to stdout in this repo, see internal/analytics.StdoutWriter.
	analyticsSink := analytics.NewSink(analytics.StdoutWriter{})

	// Background workers: hourly Hytale rotation + analytics batch flush (§4.I, §4.J, §2 component R).
	var rotationGauge worker.PoolSizeGauge
	if metrics != nil {
		rotationGauge = metrics.HytaleSessionPoolSize
	}
	rotationWorker := worker.NewRotationWorker(hytaleMgr, rotationGauge)
	purgeWorker := worker.NewPurgeWorker(store)
	runner := worker.NewRunner(rotationWorker, purgeWorker, analyticsSink)

	handler := server.New(server.Deps{
		Pipeline:       pipelineDeps,
		Cache:          cacheFacade,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
		Analytics:      analyticsSink,
		Tracer:         tracer,
		ReadyCheck:     store.Ping,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan error, 1)
	go func() { workerDone <- runner.Run(workerCtx) }()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("playerlookup ready", "addr", cfg.Server.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		workerCancel()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		workerCancel()
		return err
	}

	workerCancel()
	if err := <-workerDone; err != nil {
		slog.Error("worker shutdown error", "error", err)
	}

	if tracingShutdown != nil {
		if err := tracingShutdown(shutdownCtx); err != nil {
			slog.Error("tracing shutdown error", "error", err)
		}
	}

	slog.Info("playerlookup stopped")
	return nil
}
