// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/civix-app/civix-backend/internal/admin"
	"github.com/civix-app/civix-backend/internal/auth"
	"github.com/civix-app/civix-backend/internal/config"
	"github.com/civix-app/civix-backend/internal/core"
	"github.com/civix-app/civix-backend/internal/health"
	"github.com/civix-app/civix-backend/internal/mail"
	"github.com/civix-app/civix-backend/internal/middleware"
	"github.com/civix-app/civix-backend/internal/server"
	"github.com/civix-app/civix-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	store, err := newCredentialStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("credential store connected", "driver", cfg.Database.Driver)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	userSvc := user.NewService(store.repo)
	userHandler := user.NewHandler(userSvc)

	pendingStore := auth.NewRedisPendingStore(
		redis.Client,
		cfg.OTP.TTL+cfg.OTP.PendingGrace,
	)
	mailer := mail.NewSMTPMailer(cfg.SMTP)

	authSvc := auth.NewService(userSvc, pendingStore, mailer, jwtManager, cfg.OTP)
	authHandler := auth.NewHandler(authSvc)

	healthHandler := health.NewHandler(
		health.Check{Name: "store", Checker: store.checker},
		health.Check{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    store.stats,
		RedisStats: redis.PoolStats,
		DBPing:     store.checker.Ping,
		RedisPing:  redis.Ping,
		Accounts:   userSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager)
	superAdminOnly := middleware.RequireSuperAdmin(userSvc.LoadRoleInfo)

	// OTP and login endpoints get a tighter per-endpoint budget on top of
	// the global limiter, so code guessing cannot ride on the general quota.
	authLimiter := middleware.NewRateLimiter(
		redis.Client,
		middleware.RateLimitConfig{
			Limit:    middleware.PerHour(30, 10),
			KeyFunc:  middleware.KeyByIPAndEndpoint,
			FailOpen: true,
		},
	)

	router.Group(func(r chi.Router) {
		r.Use(authLimiter.Handler)
		authHandler.RegisterRoutes(
			r,
			authenticator,
			superAdminOnly,
			userHandler.ListAllUsers,
		)
	})

	router.Route("/v1", func(r chi.Router) {
		userHandler.RegisterRoutes(r, authenticator, superAdminOnly)
		adminHandler.RegisterRoutes(r, authenticator, superAdminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := store.close(shutdownCtx); err != nil {
		logger.Error("credential store close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// credentialStore bundles whichever driver backs the user repository with
// its lifecycle and observability hooks. stats is nil for MongoDB.
type credentialStore struct {
	repo    user.Repository
	checker health.Checker
	stats   func() sql.DBStats
	close   func(ctx context.Context) error
}

func newCredentialStore(
	ctx context.Context,
	cfg *config.Config,
) (*credentialStore, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := core.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}

		return &credentialStore{
			repo:    user.NewPostgresRepository(db.DB),
			checker: db,
			stats:   db.Stats,
			close: func(context.Context) error {
				return db.Close()
			},
		}, nil

	case config.DriverMongo:
		mg, err := core.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}

		repo, err := user.NewMongoRepository(ctx, mg.Database)
		if err != nil {
			return nil, err
		}

		return &credentialStore{
			repo:    repo,
			checker: mg,
			close:   mg.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
