package scheduler

import (
	"context"
	"time"

	"kazi_backend/internal/notification/outbox"
	"kazi_backend/platform/config"
	"kazi_backend/platform/logger"

	"github.com/google/uuid"
)

// OutboxClaimer hands out due outbox records and takes back the ones that
// could not be enqueued.
type OutboxClaimer interface {
	ClaimPending(ctx context.Context, limit int) ([]outbox.Record, error)
	MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error
}

// ReplayEnqueuer queues a replay task for one outbox record.
type ReplayEnqueuer interface {
	EnqueueSideEffectReplay(ctx context.Context, outboxID uuid.UUID, attempts int, runAt time.Time) error
}

// OutboxDispatcher polls the side-effect outbox and turns due records into
// asynq tasks.
type OutboxDispatcher struct {
	repo     OutboxClaimer
	client   ReplayEnqueuer
	batch    int
	interval time.Duration
	log      *logger.Logger
}

func NewOutboxDispatcher(cfg config.SchedulerConfig, repo OutboxClaimer, client ReplayEnqueuer, log *logger.Logger) *OutboxDispatcher {
	batch := cfg.GetOutboxBatchSize()
	if batch < 1 {
		batch = 50
	}
	interval := cfg.GetOutboxPollInterval()
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxDispatcher{
		repo:     repo,
		client:   client,
		batch:    batch,
		interval: interval,
		log:      log,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.repo == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		d.dispatchOnce(ctx)
	}
}

// dispatchOnce claims one batch and enqueues it. It reports how many
// records were enqueued.
func (d *OutboxDispatcher) dispatchOnce(ctx context.Context) int {
	records, err := d.repo.ClaimPending(ctx, d.batch)
	if err != nil {
		d.log.Warn("outbox claim failed", "error", err)
		return 0
	}

	enqueued := 0
	for _, rec := range records {
		if err := d.client.EnqueueSideEffectReplay(ctx, rec.ID, rec.Attempts, rec.RunAt); err != nil {
			d.log.Warn("outbox enqueue failed", "outboxId", rec.ID, "kind", rec.Kind, "error", err)
			msg := err.Error()
			if markErr := d.repo.MarkPending(ctx, rec.ID, &msg); markErr != nil {
				d.log.Error("outbox release failed", "outboxId", rec.ID, "error", markErr)
			}
			continue
		}
		enqueued++
	}
	return enqueued
}
