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

	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian/internal/app"
	"github.com/meridian-pos/meridian/internal/auth"
	"github.com/meridian-pos/meridian/internal/billing"
	"github.com/meridian-pos/meridian/internal/catalog"
	"github.com/meridian-pos/meridian/internal/dashboard"
	"github.com/meridian-pos/meridian/internal/inventory"
	"github.com/meridian-pos/meridian/internal/observability"
	"github.com/meridian-pos/meridian/internal/platform/cache"
	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/reports"
	"github.com/meridian-pos/meridian/internal/sales"
	"github.com/meridian-pos/meridian/internal/shared"
	"github.com/meridian-pos/meridian/internal/tenants"
	"github.com/meridian-pos/meridian/internal/users"
	"github.com/meridian-pos/meridian/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	auditLogger := shared.NewAuditLogger(pool)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authz := auth.Middleware{Tokens: tokens, Logger: logger}

	authService := auth.NewService(auth.NewRepository(pool), tokens)
	authHandler := auth.NewHandler(logger, authService)

	tenantsHandler := tenants.NewHandler(logger, tenants.NewRepository(pool), authz)

	billingService := billing.NewService(billing.NewRepository(pool), nil)
	billingGuard := billing.NewGuard(billingService)

	usersService := users.NewService(users.NewRepository(pool), billingService, auditLogger)
	usersHandler := users.NewHandler(usersService, authz, logger)

	catalogService := catalog.NewService(catalog.NewRepository(pool), billingService, auditLogger)
	catalogHandler := catalog.NewHandler(catalogService, authz, logger)

	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, authz)

	var taskClient *jobs.Client
	if redisClient != nil {
		taskClient = jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Warn("task client close", slog.Any("error", err))
			}
		}()
	}
	var enqueuer sales.TaskEnqueuer
	if taskClient != nil {
		enqueuer = taskClient
	}
	salesService := sales.NewService(sales.NewRepository(pool), auditLogger, enqueuer, logger, cfg.SaleRetryAttempts)
	salesHandler := sales.NewHandler(salesService, authz, logger)

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), dashboardCache, nil)
	dashboardHandler := dashboard.NewHandler(dashboardService, logger)

	reportsService := reports.NewService(reports.NewRepository(pool), nil)
	reportsHandler := reports.NewHandler(reportsService, authz, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          observability.NewMetrics(),
		AuthMiddleware:   authz,
		BillingGuard:     billingGuard,
		AuthHandler:      authHandler,
		TenantsHandler:   tenantsHandler,
		UsersHandler:     usersHandler,
		CatalogHandler:   catalogHandler,
		InventoryHandler: inventoryHandler,
		SalesHandler:     salesHandler,
		DashboardHandler: dashboardHandler,
		ReportsHandler:   reportsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.AppAddr, "env", cfg.AppEnv)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
