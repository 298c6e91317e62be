package sideeffect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kazi_backend/platform/logger"
	"kazi_backend/platform/metrics"
)

const effectTimeout = 10 * time.Second

// Dispatcher runs effects in isolation from the request that triggered them.
type Dispatcher struct {
	notifier Notifier
	chats    ChatProvisioner
	mailer   Mailer
	queue    Queue
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher. Any collaborator may be nil, in which
// case that effect is skipped.
func NewDispatcher(notifier Notifier, chats ChatProvisioner, mailer Mailer, log *logger.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, chats: chats, mailer: mailer, log: log}
}

// SetQueue injects the replay queue.
func (d *Dispatcher) SetQueue(q Queue) {
	d.queue = q
}

// SetMetrics injects the metrics sink.
func (d *Dispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// Notify delivers n. It reports whether delivery succeeded now.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) bool {
	if d.notifier == nil {
		return false
	}
	ctx, cancel := detach(ctx)
	defer cancel()

	if err := d.notifier.Notify(ctx, n); err != nil {
		d.fail(ctx, KindNotify, n, err, "userId", n.UserID.String(), "type", n.Type)
		return false
	}
	return true
}

// ProvisionChat returns the chat id for the pair, or "" when provisioning
// failed and was queued for replay.
func (d *Dispatcher) ProvisionChat(ctx context.Context, req ChatRequest) string {
	if d.chats == nil {
		return ""
	}
	ctx, cancel := detach(ctx)
	defer cancel()

	chatID, err := d.chats.GetOrCreateChat(ctx, req.UserA, req.UserB)
	if err != nil {
		d.fail(ctx, KindChat, req, err, "jobId", req.JobID.String())
		return ""
	}
	return chatID
}

// SendEmail sends msg. It reports whether sending succeeded now.
func (d *Dispatcher) SendEmail(ctx context.Context, msg EmailMessage) bool {
	if d.mailer == nil || msg.To == "" {
		return false
	}
	ctx, cancel := detach(ctx)
	defer cancel()

	if err := d.sendEmail(ctx, msg); err != nil {
		d.fail(ctx, KindEmail, msg, err, "template", msg.Template)
		return false
	}
	return true
}

// Replay runs a queued effect once and returns its error, so the outbox can
// decide whether to retry.
func (d *Dispatcher) Replay(ctx context.Context, kind Kind, payload json.RawMessage) error {
	switch kind {
	case KindNotify:
		var n Notification
		if err := json.Unmarshal(payload, &n); err != nil {
			return &PayloadError{Err: err}
		}
		if d.notifier == nil {
			return fmt.Errorf("notifier not configured")
		}
		return d.notifier.Notify(ctx, n)
	case KindChat:
		var req ChatRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return &PayloadError{Err: err}
		}
		if d.chats == nil {
			return fmt.Errorf("chat provisioner not configured")
		}
		_, err := d.chats.GetOrCreateChat(ctx, req.UserA, req.UserB)
		return err
	case KindEmail:
		var msg EmailMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return &PayloadError{Err: err}
		}
		if d.mailer == nil {
			return fmt.Errorf("mailer not configured")
		}
		return d.sendEmail(ctx, msg)
	default:
		return &PayloadError{Err: fmt.Errorf("unknown effect kind %q", kind)}
	}
}

// PayloadError marks a queued effect that can never succeed.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string { return "invalid payload: " + e.Err.Error() }
func (e *PayloadError) Unwrap() error { return e.Err }

func (d *Dispatcher) sendEmail(ctx context.Context, msg EmailMessage) error {
	switch msg.Template {
	case TemplateQuoteAccepted:
		return d.mailer.SendQuoteAcceptedEmail(ctx, msg.To, msg.ProviderName, msg.JobTitle, msg.AmountCents, msg.Currency, msg.Link)
	case TemplateReviewReceived:
		return d.mailer.SendReviewReceivedEmail(ctx, msg.To, msg.ProviderName, msg.JobTitle, msg.Rating, msg.Comment)
	default:
		return &PayloadError{Err: fmt.Errorf("unknown email template %q", msg.Template)}
	}
}

func (d *Dispatcher) fail(ctx context.Context, kind Kind, payload any, err error, attrs ...any) {
	d.log.WithContext(ctx).SideEffectFailed(string(kind), err, attrs...)
	d.metrics.SideEffectFailed(string(kind))

	if d.queue == nil {
		return
	}
	var payloadErr *PayloadError
	if errors.As(err, &payloadErr) {
		return
	}
	if qErr := d.queue.Enqueue(ctx, string(kind), payload); qErr != nil {
		d.log.WithContext(ctx).Error("side effect could not be queued for replay",
			"effect", string(kind),
			"error", qErr,
		)
	}
}

// detach keeps request values for logging but drops the request's
// cancellation, so a client hanging up does not abort work the store
// already committed.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), effectTimeout)
}
