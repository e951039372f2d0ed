package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/procure/core/config"
	"github.com/tailored-agentic-units/procure/erp"
	"github.com/tailored-agentic-units/procure/gateway"
	"github.com/tailored-agentic-units/procure/observability"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to gateway config file (JSON or YAML)")
		envFile    = flag.String("env", ".env", "Path to .env file")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	cfg, err := gateway.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, shutdown, err := observability.NewTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to start tracing: %v", err)
	}
	defer shutdown(context.Background())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	events, err := observability.NewPrometheusObserver("procure_gateway", reg)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}
	observability.RegisterObserver("prometheus", events)

	observer, err := observability.Resolve(cfg.Observers...)
	if err != nil {
		log.Fatalf("Failed to resolve observers: %v", err)
	}

	backend, err := erp.New(&cfg.ERP, erp.WithObserver(observer))
	if err != nil {
		log.Fatalf("Failed to create ERP client: %v", err)
	}
	defer backend.Close()

	srv, err := gateway.New(cfg, backend, gateway.WithObserver(observer), gateway.WithRegistry(reg))
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("gateway listening", "addr", cfg.Addr, "erp", cfg.ERP.URL)
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		// A failed first login is logged, not fatal; /health reports it.
		if uid, err := backend.Ping(gctx); err != nil {
			slog.Warn("ERP login failed", "error", err)
		} else {
			slog.Info("ERP login ok", "uid", uid)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Gateway stopped: %v", err)
	}
}
