package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kazi_backend/internal/chat"
	"kazi_backend/internal/email"
	apphttp "kazi_backend/internal/http"
	"kazi_backend/internal/http/router"
	"kazi_backend/internal/jobs"
	jobsvc "kazi_backend/internal/jobs/service"
	"kazi_backend/internal/notification"
	"kazi_backend/internal/notification/outbox"
	"kazi_backend/internal/orchestrator"
	"kazi_backend/internal/providers"
	providersvc "kazi_backend/internal/providers/service"
	"kazi_backend/internal/quotes"
	quotesvc "kazi_backend/internal/quotes/service"
	"kazi_backend/internal/reviews"
	reviewsvc "kazi_backend/internal/reviews/service"
	"kazi_backend/internal/sideeffect"
	"kazi_backend/internal/store/postgres"
	"kazi_backend/platform/cache"
	"kazi_backend/platform/config"
	"kazi_backend/platform/db"
	"kazi_backend/platform/logger"
	"kazi_backend/platform/metrics"
	"kazi_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.GetStoreDriver())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres always backs notifications, chats and the outbox, and holds
	// the marketplace tables when STORE_DRIVER=postgres.
	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.Migrate(ctx, pool, postgres.Migrations, postgres.MigrationsDir)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	backends, err := openBackends(ctx, cfg, pool, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		panic("failed to open store: " + err.Error())
	}
	defer backends.Close()

	mtx := metrics.New()
	val := validator.New()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	chatSvc := chat.NewService(chat.NewRepository(pool), log)
	if cfg.GetRedisURL() != "" {
		rdb, err := cache.NewRedis(ctx, cfg)
		if err != nil {
			log.Warn("chat cache disabled", "error", err)
		} else {
			defer func() { _ = rdb.Close() }()
			chatSvc.SetCache(rdb, cfg.GetChatCacheTTL())
		}
	}

	notificationModule := notification.New(pool, val, log)
	notificationModule.SetMetrics(mtx)
	if backends.Pusher != nil {
		notificationModule.SetPusher(backends.newPushSender(notificationModule.Tokens(), log))
	}

	dispatcher := sideeffect.NewDispatcher(notificationModule.Notifier(), chatSvc, sender, log)
	dispatcher.SetQueue(outbox.New(pool))
	dispatcher.SetMetrics(mtx)

	gw := backends.Gateway
	jobService := jobsvc.New(gw)
	quoteService := quotesvc.New(gw)
	reviewService := reviewsvc.New(gw)
	providerService := providersvc.New(gw)

	orch := orchestrator.New(jobService, quoteService, reviewService, providerService, dispatcher, log)
	orch.SetRetryPolicy(cfg)
	orch.SetMetrics(mtx)
	orch.SetAppBaseURL(cfg.GetAppBaseURL())

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  pool,
		Metrics: mtx,
		Modules: []apphttp.Module{
			jobs.NewModule(jobService, orch, val),
			quotes.NewModule(quoteService, orch, val),
			reviews.NewModule(orch, val),
			providers.NewModule(providerService, val),
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server stopped", "error", err)
			panic("server stopped: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
