// Package notification owns in-app notifications, device push and the
// replay of side effects queued in the outbox.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"kazi_backend/internal/events"
	apphttp "kazi_backend/internal/http"
	notifhandler "kazi_backend/internal/notification/handler"
	"kazi_backend/internal/notification/inapp"
	"kazi_backend/internal/notification/outbox"
	"kazi_backend/internal/notification/push"
	"kazi_backend/internal/sideeffect"
	"kazi_backend/platform/logger"
	"kazi_backend/platform/metrics"
	"kazi_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxOutboxRetryAttempts = 10
	outboxRetryBaseDelay   = 30 * time.Second
	outboxRetryMaxDelay    = 30 * time.Minute
)

// OutboxStore is the outbox persistence used while replaying.
type OutboxStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string) error
}

// Replayer runs one queued side effect.
type Replayer interface {
	Replay(ctx context.Context, kind sideeffect.Kind, payload json.RawMessage) error
}

// Module handles notification routes and outbox replay events.
type Module struct {
	log          *logger.Logger
	metrics      *metrics.Metrics
	inAppService *inapp.Service
	inAppHandler *notifhandler.HTTPHandler
	tokens       *push.TokenRepository
	outbox       OutboxStore
	replayer     Replayer
	now          func() time.Time
}

// New creates a new notification module.
func New(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	inAppSvc := inapp.NewService(inapp.NewRepository(pool), log)
	tokens := push.NewTokenRepository(pool)

	return &Module{
		log:          log,
		inAppService: inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc, tokens, val),
		tokens:       tokens,
		now:          time.Now,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes registers notification API routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.inAppHandler == nil {
		return
	}

	notifications := ctx.Protected.Group("/notifications")
	m.inAppHandler.RegisterRoutes(notifications)
}

// Notifier exposes the in-app service as the side-effect notifier.
func (m *Module) Notifier() sideeffect.Notifier { return m.inAppService }

// Tokens exposes the device token repository for the push sender.
func (m *Module) Tokens() *push.TokenRepository { return m.tokens }

// SetPusher enables device push for every stored notification.
func (m *Module) SetPusher(p inapp.Pusher) { m.inAppService.SetPusher(p) }

// SetOutbox injects the outbox repository used by replay.
func (m *Module) SetOutbox(store OutboxStore) { m.outbox = store }

// SetReplayer injects the side-effect dispatcher used by replay.
func (m *Module) SetReplayer(r Replayer) { m.replayer = r }

// SetMetrics injects the metrics sink.
func (m *Module) SetMetrics(mt *metrics.Metrics) { m.metrics = mt }

// RegisterHandlers subscribes the module to the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.SideEffectDue{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.SideEffectDue:
		return m.handleSideEffectDue(ctx, e)
	default:
		m.log.Debug("notification module ignoring event", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleSideEffectDue(ctx context.Context, e events.SideEffectDue) error {
	if m.outbox == nil || m.replayer == nil {
		m.log.Debug("side effect outbox not configured; skipping due event", "outboxId", e.OutboxID)
		return nil
	}
	rec, process, err := m.prepareOutboxRecord(ctx, e.OutboxID)
	if err != nil || !process {
		if err != nil {
			m.log.Error("failed to prepare outbox record", "outboxId", e.OutboxID, "error", err)
		}
		return err
	}

	replayErr := m.replayer.Replay(ctx, sideeffect.Kind(rec.Kind), rec.Payload)
	if replayErr == nil {
		if err := m.outbox.MarkSucceeded(ctx, rec.ID); err != nil {
			m.log.Error("failed to mark outbox record succeeded", "outboxId", rec.ID.String(), "error", err)
			return err
		}
		m.metrics.OutboxReplay(rec.Kind, "succeeded")
		m.log.Info("outbox record replayed", "outboxId", rec.ID.String(), "kind", rec.Kind)
		return nil
	}

	var payloadErr *sideeffect.PayloadError
	if errors.As(replayErr, &payloadErr) {
		_ = m.outbox.MarkFailed(ctx, rec.ID, replayErr.Error())
		m.metrics.OutboxReplay(rec.Kind, "failed")
		m.log.Warn("outbox record has an unusable payload; marked failed", "outboxId", rec.ID.String(), "kind", rec.Kind, "error", replayErr)
		return nil
	}

	m.handleOutboxDeliveryError(ctx, rec, replayErr)
	return replayErr
}

func (m *Module) handleOutboxDeliveryError(ctx context.Context, rec outbox.Record, deliveryErr error) {
	attempt := rec.Attempts + 1
	if attempt >= maxOutboxRetryAttempts {
		_ = m.outbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.metrics.OutboxReplay(rec.Kind, "failed")
		m.log.Warn("side effect outbox exhausted retries",
			"outboxId", rec.ID.String(),
			"kind", rec.Kind,
			"attempt", attempt,
			"maxAttempts", maxOutboxRetryAttempts,
			"error", deliveryErr,
		)
		return
	}

	retryAt := m.now().UTC().Add(computeOutboxRetryDelay(attempt))
	if err := m.outbox.ScheduleRetry(ctx, rec.ID, retryAt, deliveryErr.Error()); err != nil {
		_ = m.outbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.metrics.OutboxReplay(rec.Kind, "failed")
		m.log.Error("side effect outbox retry scheduling failed; marked failed",
			"outboxId", rec.ID.String(),
			"attempt", attempt,
			"error", err,
		)
		return
	}

	m.metrics.OutboxReplay(rec.Kind, "retry")
	m.log.Warn("side effect outbox scheduled retry",
		"outboxId", rec.ID.String(),
		"kind", rec.Kind,
		"attempt", attempt,
		"maxAttempts", maxOutboxRetryAttempts,
		"retryAt", retryAt,
		"error", deliveryErr,
	)
}

func computeOutboxRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		return outboxRetryMaxDelay
	}
	delay := outboxRetryBaseDelay << (attempt - 1)
	if delay > outboxRetryMaxDelay {
		return outboxRetryMaxDelay
	}
	return delay
}

// prepareOutboxRecord loads the record and marks it processing. It reports
// false for records that already succeeded, since asynq may deliver a task
// more than once.
func (m *Module) prepareOutboxRecord(ctx context.Context, outboxID uuid.UUID) (outbox.Record, bool, error) {
	rec, err := m.outbox.GetByID(ctx, outboxID)
	if errors.Is(err, outbox.ErrNotFound) {
		m.log.Warn("outbox record vanished; skipping", "outboxId", outboxID.String())
		return outbox.Record{}, false, nil
	}
	if err != nil {
		return outbox.Record{}, false, err
	}
	if rec.Status == outbox.StatusSucceeded || rec.Status == outbox.StatusFailed {
		m.log.Debug("outbox record already settled; skipping", "outboxId", rec.ID.String(), "status", rec.Status)
		return rec, false, nil
	}
	if err := m.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return outbox.Record{}, false, err
	}
	return rec, true, nil
}
