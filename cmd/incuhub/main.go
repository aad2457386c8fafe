package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/incuhub/incuhub/internal/access"
	"github.com/incuhub/incuhub/internal/app"
	"github.com/incuhub/incuhub/internal/auth"
	"github.com/incuhub/incuhub/internal/guard"
	"github.com/incuhub/incuhub/internal/identity"
	"github.com/incuhub/incuhub/internal/observability"
	"github.com/incuhub/incuhub/internal/platform/cache"
	"github.com/incuhub/incuhub/internal/platform/db"
	"github.com/incuhub/incuhub/internal/profile"
	"github.com/incuhub/incuhub/internal/program"
	"github.com/incuhub/incuhub/internal/shared"
	"github.com/incuhub/incuhub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "incuhub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)

	profileRepo := profile.NewRepository(dbpool)

	resolver := identity.NewResolver(authService, nil, logger)
	cachedResolver := identity.NewCachedResolver(resolver, redisClient, cfg.IdentityCacheTTL, logger)

	profileService := profile.NewService(profileRepo, cachedResolver, auditLogger, logger)
	resolver.SetProfiles(profileService)

	registry := access.DefaultRegistry()
	engine := access.NewEngine(registry)

	guardMW := guard.Middleware{
		Resolver: cachedResolver,
		Engine:   engine,
		Registry: registry,
		Logger:   logger,
		Auditor:  auditLogger,
		Observer: metrics,
		Timeout:  cfg.GuardTimeout,
	}

	authHandler := auth.NewHandler(logger, authService, cachedResolver, sessionManager, cachedResolver, auditLogger)
	accessHandler := access.NewHandler(logger, engine, registry, cachedResolver, metrics)
	profileHandler := profile.NewHandler(logger, profileService)
	programRepo := program.NewRepository(dbpool)
	programService := program.NewService(programRepo)
	programHandler := program.NewHandler(logger, programService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		AccessHandler:  accessHandler,
		ProfileHandler: profileHandler,
		ProgramHandler: programHandler,
		JobHandler:     jobHandler,
		Guard:          guardMW,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
