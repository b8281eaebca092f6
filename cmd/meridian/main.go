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
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/balances"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/periods"
	"github.com/meridian-erp/meridian-erp/internal/accounting/recon"
	"github.com/meridian-erp/meridian-erp/internal/accounting/reports"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, close locks degrade to db guards", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	locker := shared.NewDistLock(redisClient)

	balancesService := balances.NewService(balances.NewRepository(pool), logger)
	accountsService := accounts.NewService(accounts.NewRepository(pool), balancesService, auditLogger, logger)
	periodsService := periods.NewService(periods.NewRepository(pool), auditLogger, locker)
	reconService := recon.NewService(recon.NewRepository(pool), auditLogger)
	journalsService := journals.NewService(journals.NewRepository(pool), periodsService, auditLogger)
	reportsService := reports.NewService(reports.NewRepository(pool), logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = inspector.Close() }()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accounts.NewHandler(logger, accountsService, metrics),
		JournalsHandler: journals.NewHandler(logger, journalsService, metrics),
		BalancesHandler: balances.NewHandler(logger, balancesService, metrics),
		PeriodsHandler:  periods.NewHandler(logger, periodsService),
		ReconHandler:    recon.NewHandler(logger, reconService),
		ReportsHandler:  reports.NewHandler(logger, reportsService),
		JobsHandler:     jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
