package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	cacheredis "github.com/EngSayh/Fixzit-sub007/internal/adapter/cache/redis"
	"github.com/EngSayh/Fixzit-sub007/internal/adapter/events/nats"
	"github.com/EngSayh/Fixzit-sub007/internal/adapter/events/noop"
	"github.com/EngSayh/Fixzit-sub007/internal/config"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/logger"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/presence"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/tracing"
	"github.com/EngSayh/Fixzit-sub007/internal/port"
	"github.com/EngSayh/Fixzit-sub007/internal/realtime"
	"github.com/EngSayh/Fixzit-sub007/internal/service"
	transporthttp "github.com/EngSayh/Fixzit-sub007/internal/transport/http"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.LogLevel)
	log.Info("starting notifyd", "version", version, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint, "notifyd")
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	transporthttp.SetAuthSecret([]byte(cfg.JWTSecret))

	// Presence survives instance restarts only when Redis is up. An
	// unreachable Redis is degraded service, not a startup failure.
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = cacheredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, presence falls back to memory", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	tracker := presence.NewTracker(rdb, cfg.PresenceTTL)

	var bus port.EventBus
	if cfg.NATSURL != "" {
		bus = nats.New(cfg.NATSURL, slog.Default())
	} else {
		bus = noop.New()
	}
	defer bus.Close()

	registry := realtime.NewRegistry(realtime.Options{
		MaxPerUser: cfg.MaxConnsPerUser,
		StaleAfter: cfg.StaleConnTimeout,
		SweepEvery: cfg.SweepInterval,
	})
	defer registry.Close()

	publisher := realtime.NewPublisher(registry, bus, realtime.PublisherOptions{
		SubjectPrefix: cfg.NATSSubjectPrefix,
	})
	publisher.Start()
	defer publisher.Stop()

	notifications := service.NewNotificationsImpl(publisher)

	handler := transporthttp.NewHandler(transporthttp.HandlerOptions{
		Registry:          registry,
		Notifier:          publisher,
		Notifications:     notifications,
		Presence:          tracker,
		Bus:               bus,
		HeartbeatInterval: cfg.HeartbeatInterval,
		RetryMillis:       cfg.SSERetryMillis,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           transporthttp.NewRouter(handler, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		// WriteTimeout stays zero: stream responses are open-ended.
		// BaseContext ties every stream to the signal context, so a
		// SIGTERM unblocks them and Shutdown can finish in time.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("notifyd is ready", "addr", cfg.HTTPAddr, "bus_enabled", bus.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
