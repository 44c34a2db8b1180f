package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/server"
	"go-chi-calculator/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("api", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	_ = flags.Parse(os.Args[1:])

	if err := loadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.LoadWithFlags(*configPath, flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Logger
	if err := observability.InitLogger(cfg.Server.LogLevel); err != nil {
		return err
	}
	defer observability.SyncLogger()

	// Tracing, metrics, OTLP logs
	telemetryShutdown, err := initTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := telemetryShutdown(sctx); err != nil {
			observability.Logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	// Sessions
	engineOpts := engineOptions(cfg.Engine)
	store := session.NewStore(
		session.WithIdleTimeout(cfg.Sessions.IdleTimeout),
		session.WithMaxSessions(cfg.Sessions.MaxSessions),
		session.WithEngineOptions(engineOpts...),
	)
	if err := prometheus.Register(store.Collector()); err != nil {
		return fmt.Errorf("registering session collector: %w", err)
	}
	go store.Run(ctx, cfg.Sessions.SweepInterval, func(removed int) {
		if removed > 0 {
			observability.Logger.Info("idle sessions expired", zap.Int("removed", removed))
		}
	})

	// Router
	router := server.NewRouter(calculator.NewHandler(store, engineOpts...))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Logger.Info("server started", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	return waitForShutdown(srv, cfg.Server.ShutdownTimeout)
}
