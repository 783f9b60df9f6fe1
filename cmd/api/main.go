package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/Cristi-la/EOL-Net/internal/api/http"
	"github.com/Cristi-la/EOL-Net/internal/api/http/handlers"
	"github.com/Cristi-la/EOL-Net/internal/auth"
	"github.com/Cristi-la/EOL-Net/internal/config"
	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/events"
	"github.com/Cristi-la/EOL-Net/internal/observability"
	"github.com/Cristi-la/EOL-Net/internal/persistence"
	"github.com/Cristi-la/EOL-Net/internal/ratelimit"
	"github.com/Cristi-la/EOL-Net/internal/repository"
	"github.com/Cristi-la/EOL-Net/internal/service"
	"github.com/Cristi-la/EOL-Net/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rates, err := ratelimit.ParseRates(cfg.Throttle.Rates)
	if err != nil {
		logger.Fatal("invalid throttle configuration", zap.Error(err))
	}
	counters, redis := throttleBackend(cfg, logger)
	defer redis.Close()
	for class, rate := range rates {
		logger.Info("throttle class configured", zap.String("class", class), zap.Stringer("rate", rate))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	vendorRepo := repository.NewVendorRepository(pool)
	entityRepo := repository.NewEntityRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	metrics := observability.NewMetrics()
	credentials := auth.NewCredentialManager(cfg.Auth.JWTSecret)
	gate := auth.NewGate()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	tokenService := service.NewTokenService(service.TokenDependencies{
		TokenRepo:   tokenRepo,
		UserRepo:    userRepo,
		VendorRepo:  vendorRepo,
		Credentials: credentials,
		Dispatcher:  dispatcher,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		VendorRepo: vendorRepo,
		EntityRepo: entityRepo,
		Dispatcher: dispatcher,
	})

	loginLimiter := httptransport.NewLoginLimiter(cfg.Auth.LoginRPS, cfg.Auth.LoginBurst, logger)
	go loginLimiter.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readinessChecks(pg, redis)),
		Admin:           handlers.NewAdminHandler(authService, tokenService),
		Vendors:         handlers.NewVendorsHandler(catalogService),
		Products:        handlers.NewEntitiesHandler(domain.EntityProduct, catalogService, gate, metrics),
		Software:        handlers.NewEntitiesHandler(domain.EntitySoftware, catalogService, gate, metrics),
		Credentials:     credentials,
		Authenticator:   auth.NewAuthenticator(credentials, tokenRepo),
		Gate:            gate,
		Limiter:         ratelimit.NewLimiter(rates, counters),
		AdminMiddleware: auth.NewAdminMiddleware(authService.Sessions(), userRepo),
		LoginLimiter:    loginLimiter,
		Metrics:         metrics,
		Logger:          logger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// throttleBackend builds the rate-limit counter store. Redis is only dialled when it
// holds the counters; otherwise the returned client is nil.
func throttleBackend(cfg *config.Config, logger *zap.Logger) (ratelimit.CounterStore, *persistence.Redis) {
	if cfg.Throttle.Store != config.ThrottleStoreRedis {
		return ratelimit.NewMemoryStore(), nil
	}
	redis := persistence.NewRedis(cfg.Redis, logger)
	return ratelimit.NewRedisStore(redis.Client), redis
}

// readinessChecks lists what /health/ready pings. Redis counts only when configured.
func readinessChecks(pg handlers.Pinger, redis *persistence.Redis) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{"postgres": pg}
	if redis != nil {
		checks["redis"] = redis
	}
	return checks
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
