package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kazi_backend/internal/chat"
	"kazi_backend/internal/email"
	"kazi_backend/internal/events"
	"kazi_backend/internal/notification"
	"kazi_backend/internal/notification/outbox"
	"kazi_backend/internal/scheduler"
	"kazi_backend/internal/sideeffect"
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

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	mtx := metrics.New()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	chatSvc := chat.NewService(chat.NewRepository(pool), log)
	if cfg.GetRedisURL() != "" {
		if rdb, err := cache.NewRedis(ctx, cfg); err != nil {
			log.Warn("chat cache disabled", "error", err)
		} else {
			defer func() { _ = rdb.Close() }()
			chatSvc.SetCache(rdb, cfg.GetChatCacheTTL())
		}
	}

	outboxRepo := outbox.New(pool)

	notificationModule := notification.New(pool, validator.New(), log)
	notificationModule.SetMetrics(mtx)
	notificationModule.SetOutbox(outboxRepo)
	// Replays never re-queue; the notification module owns the retry schedule.
	notificationModule.SetReplayer(sideeffect.NewDispatcher(notificationModule.Notifier(), chatSvc, sender, log))
	notificationModule.RegisterHandlers(eventBus)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	dispatcher := scheduler.NewOutboxDispatcher(cfg, outboxRepo, client, log)
	go dispatcher.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
