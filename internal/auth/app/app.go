package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/aussiebroadwan/taskflow/internal/auth/http"
	"github.com/aussiebroadwan/taskflow/internal/auth/service"
	"github.com/aussiebroadwan/taskflow/internal/auth/store"
	"github.com/aussiebroadwan/taskflow/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/taskflow/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
	"github.com/aussiebroadwan/taskflow/pkg/httpx"
	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	hasher     *cryptox.PasswordHasher
	redis      *redis.Client
	limiters   httpx.LimiterFactory

	// Services
	tokenService         *service.TokenService
	userService          *service.UserService
	passwordResetService *service.PasswordResetService
	housekeepingService  *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "taskflow-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	keyManager, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initHasher(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initRateLimiting(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()

	if app.cfg.SeedDemo {
		created, err := app.userService.SeedDemoUser(ctx)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to seed demo user: %w", err)
		}
		if created {
			app.logger.Info("demo user created", "email", service.DemoEmail)
		}
	}

	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until ctx is cancelled, SIGINT or
// SIGTERM arrives, or the server fails.
func (app *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"db_driver", app.cfg.DBDriver,
		"ratelimit_backend", app.cfg.RateLimitBackend,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutdown requested", "cause", context.Cause(gctx))
		return app.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slogx.Err(err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slogx.Err(err))
		}
	}

	app.housekeepingService.Stop()

	if err := app.close(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slogx.Err(err))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (app *Application) initHasher() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	hasher, err := cryptox.NewPasswordHasher(app.cfg.PasswordAlgorithm, app.cfg.PasswordCost, pepper)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	app.hasher = hasher
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var db store.Store
	switch app.cfg.DBDriver {
	case DriverPostgres:
		pg, err := postgres.NewStore(ctx, app.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		db = pg
	default:
		lite, err := sqlite.NewStore("file:" + app.cfg.DatabaseFile)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		db = lite
	}
	app.db = db

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	attrs := []any{"driver", app.cfg.DBDriver}
	if v, ok := db.(interface {
		SchemaVersion() (uint, bool, error)
	}); ok {
		if version, dirty, err := v.SchemaVersion(); err == nil {
			attrs = append(attrs, "schema_version", version, "dirty", dirty)
		}
	}
	app.logger.Info("database migrations applied successfully", attrs...)
	return nil
}

// initRateLimiting picks the limiter backend. Redis shares counters across
// replicas; memory limits per process.
func (app *Application) initRateLimiting(ctx context.Context) error {
	if app.cfg.RateLimitBackend != RateLimitRedis {
		app.limiters = httpx.MemoryLimiters()
		return nil
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.redis = client
	app.limiters = httpx.RedisLimiters(client, "taskflow:ratelimit")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Keys:       app.keyManager,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.userService = &service.UserService{
		Store:  app.db,
		Hasher: app.hasher,
		Tokens: app.tokenService,
	}

	app.passwordResetService = &service.PasswordResetService{
		Store:        app.db,
		Hasher:       app.hasher,
		Mailer:       service.LogMailer{Logger: app.logger},
		ResetURLBase: app.cfg.ClientURL,
		TTL:          app.cfg.ResetTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.limiters,
		app.logger,
		app.cfg.ClientURL,
	)

	// Wire services to router
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.PasswordResetService = app.passwordResetService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
