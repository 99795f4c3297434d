// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the SamaTechnicien identity API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (and .env in development).
//  3. Connect to PostgreSQL (pgxpool) and run migrations.
//  4. Connect to Redis (session slots) and NATS (provider push channel).
//  5. Wire the provider client, identity and account services.
//  6. Subscribe auto-login to provider events.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samatechnicien/samatech/internal/api"
	"github.com/samatechnicien/samatech/internal/platform/config"
	"github.com/samatechnicien/samatech/internal/platform/constants"
	"github.com/samatechnicien/samatech/internal/platform/metrics"
	"github.com/samatechnicien/samatech/internal/platform/migration"
	"github.com/samatechnicien/samatech/internal/platform/natsbus"
	pgstore "github.com/samatechnicien/samatech/internal/platform/postgres"
	redisstore "github.com/samatechnicien/samatech/internal/platform/redis"
	"github.com/samatechnicien/samatech/internal/platform/sec"
	"github.com/samatechnicien/samatech/internal/users/account"
	"github.com/samatechnicien/samatech/internal/users/identity"
	"github.com/samatechnicien/samatech/internal/users/provider"
	"github.com/samatechnicien/samatech/internal/users/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("provider_enabled", cfg.ProviderEnabled()),
		slog.Bool("breakglass_enabled", cfg.BreakglassEmail != ""),
	)

	// Root context for startup. A 30s deadline catches misconfiguration
	// quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 4. Redis & NATS ───────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	bus, err := natsbus.Connect(cfg.NATSURL, constants.AppName, log)
	must(log, err, "connect to nats")
	defer func() {
		log.Info("draining_nats_connection")
		if cerr := bus.Close(); cerr != nil {
			log.Error("nats_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Security & Metrics ─────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	registry := metrics.New()

	// ── 6. Managed Auth Provider ──────────────────────────────────────────
	var providerClient provider.Client
	if cfg.ProviderEnabled() {
		supabaseClient, err := provider.NewSupabase(provider.SupabaseConfig{
			URL:         cfg.SupabaseURL,
			AnonKey:     cfg.SupabaseAnonKey,
			Timeout:     cfg.ProviderTimeout,
			RedirectURL: cfg.EmailRedirectURL,
		}, log)
		must(log, err, "initialize supabase client")
		providerClient = supabaseClient
	} else {
		log.Warn("provider_disabled", slog.String("reason", "SUPABASE_URL or SUPABASE_ANON_KEY unset"))
	}

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	sessions := session.NewManager(session.NewRedisStore(rdb, cfg.SessionTTL))
	unwatchSessions := sessions.Subscribe(session.AnySlot, identity.PublishSessionChanges(bus, log))
	defer unwatchSessions()

	identityService := identity.NewService(identity.Dependencies{
		Users:      identity.NewUserRepository(pool),
		Sessions:   sessions,
		Provider:   providerClient,
		Tokens:     tokenService,
		Breakglass: identity.NewBreakglass(cfg.BreakglassEmail, cfg.BreakglassPasswordHash),
		Metrics:    registry,
	})
	accountService := account.NewService(account.NewRepository(pool), sessions)

	events := provider.NewEventPublisher(bus, cfg.EventsSubject)

	// ── 8. Auto-login Subscription ────────────────────────────────────────
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	autoLogin := identity.NewAutoLogin(identityService, identity.NewBusReloader(bus),
		provider.NewTokenVerifier(cfg.SupabaseJWTSecret), log)

	unsubscribe, err := provider.NewEventSource(bus, cfg.EventsSubject, log).Subscribe(rootCtx, autoLogin.Handle)
	must(log, err, "subscribe to provider events")

	// ── 9. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers([]api.DependencyCheck{
		{Name: "postgres", Ping: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		{Name: "redis", Ping: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
		{Name: "nats", Ping: bus.Ping},
	}, log)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, tokenService, registry, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Identity:  identity.NewHandler(identityService, events, cfg.WebhookSecret),
		Account:   account.NewHandler(accountService),
	})

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Stop reacting to provider events before the stores go away.
	if err := unsubscribe(); err != nil {
		log.Error("provider_unsubscribe_failed", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger carrying the app attribute on every entry.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
