package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/forum-service/internal/api/http"
	"github.com/spec-kit/forum-service/internal/api/http/handlers"
	"github.com/spec-kit/forum-service/internal/auth"
	"github.com/spec-kit/forum-service/internal/config"
	"github.com/spec-kit/forum-service/internal/events"
	"github.com/spec-kit/forum-service/internal/observability"
	"github.com/spec-kit/forum-service/internal/persistence"
	"github.com/spec-kit/forum-service/internal/repository"
	"github.com/spec-kit/forum-service/internal/service"
	"github.com/spec-kit/forum-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required to serve user and role lookups")
	}
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)

	var roleStore auth.RoleStore = roleRepo
	var roleCache service.RoleCacheInvalidator
	if ttl := cfg.Auth.RoleCacheTTL(); ttl > 0 {
		cached := repository.NewCachedRoleStore(roleRepo, redis.Client, ttl, logger)
		roleStore, roleCache = cached, cached
		logger.Info("role cache enabled", zap.Duration("ttl", ttl))
	}

	authService, err := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("invalid auth configuration", zap.Error(err))
	}
	roleService := service.NewRoleService(roleRepo, roleCache, dispatcher, logger)

	pipeline := auth.NewPipeline(authService.TokenCodec(), userRepo, roleStore, auth.WithLogger(logger))
	authMiddleware := auth.NewAuthMiddleware(pipeline, logger, metrics, dispatcher)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, roleService),
		Roles:          handlers.NewRolesHandler(roleService),
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
