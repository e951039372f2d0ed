package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/procure/bot"
	"github.com/tailored-agentic-units/procure/chat"
	"github.com/tailored-agentic-units/procure/core/config"
	"github.com/tailored-agentic-units/procure/core/httpserver"
	"github.com/tailored-agentic-units/procure/observability"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to bot config file (JSON or YAML)")
		envFile    = flag.String("env", ".env", "Path to .env file")
		addr       = flag.String("addr", "", "Chat listen address (overrides config)")
		gatewayURL = flag.String("gateway", "", "Gateway base URL (overrides config)")
		console    = flag.Bool("console", false, "Also read messages from stdin")
		user       = flag.String("user", "console", "User id for console messages")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	cfg, err := bot.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *gatewayURL != "" {
		cfg.Gateway.URL = *gatewayURL
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

	events, err := observability.NewPrometheusObserver("procure_bot", prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}
	observability.RegisterObserver("prometheus", events)

	b, err := bot.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	defer b.Close()

	observer, err := observability.Resolve(cfg.Observers...)
	if err != nil {
		log.Fatalf("Failed to resolve observers: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/chat", chat.NewWebSocketServer(b, chat.WithObserver(observer)))
	mux.Handle("GET /metrics", promhttp.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("chat server listening", "addr", cfg.Addr, "gateway", cfg.Gateway.URL)
		return httpserver.Run(gctx, httpserver.New(cfg.Addr, mux))
	})
	if *console {
		g.Go(func() error {
			err := chat.NewConsole(b, *user, os.Stdin, os.Stdout).Run(gctx)
			stop()
			return err
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("Bot stopped: %v", err)
	}
}
