// Package main implements the liveboard entry point. Liveboard ingests
// live table updates from NATS topics, keeps the latest table per topic in
// memory, and serves snapshots plus refresh notifications to viewers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/krisvansteen/Dashboards/board"
	"github.com/krisvansteen/Dashboards/component"
	"github.com/krisvansteen/Dashboards/config"
	"github.com/krisvansteen/Dashboards/ingest"
	"github.com/krisvansteen/Dashboards/metric"
	"github.com/krisvansteen/Dashboards/natsclient"
	"github.com/krisvansteen/Dashboards/notify"
	"github.com/krisvansteen/Dashboards/relay"
	"github.com/krisvansteen/Dashboards/schema"
	"github.com/krisvansteen/Dashboards/server"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "liveboard"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting liveboard",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	natsClient, err := buildNATSClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer natsClient.Close(ctx)

	registry := metric.NewRegistry()

	resolver := schema.NewResolver(cfg.Board.Columns)
	cache := board.NewCache(resolver, board.WithMetrics(registry))

	hub := notify.NewHub(cfg.Notify.ClientBuffer,
		notify.WithLogger(logger),
		notify.WithMetrics(registry))

	pipeline := ingest.NewPipeline(cfg.Board.BaseTopic, cfg.Board.DeleteSuffix,
		natsClient, cache, hub,
		ingest.WithLogger(logger),
		ingest.WithMetrics(registry))

	deleteRelay := relay.NewRelay(natsClient, cfg.Board.DeleteSuffix,
		relay.WithLogger(logger))

	manager := component.NewManager(logger)

	srv := server.NewServer(cfg.HTTP, cache, deleteRelay,
		server.WithLogger(logger),
		server.WithMetricsHandler(registry.Handler()),
		server.WithHealthReporter(manager),
		server.WithNotifyHandler(cfg.Notify.Path, hub))

	manager.Register(hub)
	manager.Register(pipeline)
	manager.Register(srv)

	if err := manager.StartAll(ctx, cliCfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("start components: %w", err)
	}

	slog.Info("liveboard running",
		"base_topic", cfg.Board.BaseTopic,
		"http_port", cfg.HTTP.Port,
		"notify_path", cfg.Notify.Path)

	return waitForShutdown(manager, cliCfg.ShutdownTimeout)
}

func buildNATSClient(cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithLogger(logger),
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
	}
	if cfg.NATS.ReconnectWait.Std() > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}

	return natsclient.NewClient(cfg.NATS.URL, opts...)
}

func waitForShutdown(manager *component.Manager, timeout time.Duration) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	slog.Info("Shutdown signal received", "signal", sig.String())

	if err := manager.StopAll(timeout); err != nil {
		return fmt.Errorf("stop components: %w", err)
	}

	slog.Info("Shutdown complete")
	return nil
}
