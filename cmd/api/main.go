package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/agservice/internal/api/http"
	"github.com/spec-kit/agservice/internal/api/http/handlers"
	"github.com/spec-kit/agservice/internal/auth"
	"github.com/spec-kit/agservice/internal/config"
	"github.com/spec-kit/agservice/internal/events"
	"github.com/spec-kit/agservice/internal/observability"
	"github.com/spec-kit/agservice/internal/persistence"
	"github.com/spec-kit/agservice/internal/repository"
	"github.com/spec-kit/agservice/internal/service"
	"github.com/spec-kit/agservice/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	if err != nil {
		logger.Fatal("invalid token configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("account store unavailable; set POSTGRES_DSN")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, cfg.Audit))

	accountRepo := repository.NewAccountRepository(pool)
	requestRepo := repository.NewServiceRequestRepository(pool)

	sessions := service.NewSessionService(service.SessionDependencies{
		Accounts:   accountRepo,
		Tokens:     tokens,
		Hasher:     auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err := sessions.EnsureBootstrapAccount(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword); err != nil {
		logger.Fatal("failed to bootstrap account", zap.Error(err))
	}
	requests := service.NewServiceRequestService(requestRepo)

	throttle := auth.NewLoginThrottle(redis.Cmdable(), cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())
	cookies := auth.SessionCookies{Secure: cfg.Auth.CookieSecure}

	pages, err := handlers.NewPagesHandler(requests)
	if err != nil {
		logger.Fatal("failed to parse page templates", zap.Error(err))
	}

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    redis,
	})

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:          health,
		Auth:            handlers.NewAuthHandler(sessions, throttle, cookies, metrics, logger),
		Pages:           pages,
		ServiceRequests: handlers.NewServiceRequestsHandler(requests),
		Dashboard:       handlers.NewDashboardHandler(requests),
		AuthMiddleware:  auth.NewAuthMiddleware(tokens, logger, metrics),
		Policy:          auth.NewPolicy(auth.DefaultRouteRules(), logger, metrics),
		Metrics:         metrics,
		StaticDir:       cfg.App.StaticDir,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
