// Package orchestrator sequences the marketplace's cross-entity operations.
// Each operation commits one authoritative mutation through a lifecycle
// manager, retrying the whole operation on transaction contention, and then
// fires best-effort side effects that can never undo the committed state.
package orchestrator

import (
	"context"
	"math/rand/v2"
	"time"

	jobsvc "kazi_backend/internal/jobs/service"
	providersvc "kazi_backend/internal/providers/service"
	quotesvc "kazi_backend/internal/quotes/service"
	reviewsvc "kazi_backend/internal/reviews/service"
	"kazi_backend/internal/sideeffect"
	"kazi_backend/platform/apperr"
	"kazi_backend/platform/config"
	"kazi_backend/platform/logger"
	"kazi_backend/platform/metrics"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 25 * time.Millisecond
	maxRetryDelay      = time.Second
)

// Effects is the side-effect surface the orchestrator fires after commit.
type Effects interface {
	Notify(ctx context.Context, n sideeffect.Notification) bool
	ProvisionChat(ctx context.Context, req sideeffect.ChatRequest) string
	SendEmail(ctx context.Context, msg sideeffect.EmailMessage) bool
}

// Orchestrator is the entry point request handlers call for every mutation.
type Orchestrator struct {
	jobs      *jobsvc.Service
	quotes    *quotesvc.Service
	reviews   *reviewsvc.Service
	providers *providersvc.Service
	effects   Effects
	log       *logger.Logger
	metrics   *metrics.Metrics

	maxAttempts int
	baseDelay   time.Duration
	appBaseURL  string
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator over the lifecycle services.
func New(
	jobs *jobsvc.Service,
	quotes *quotesvc.Service,
	reviews *reviewsvc.Service,
	providers *providersvc.Service,
	effects Effects,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		jobs:        jobs,
		quotes:      quotes,
		reviews:     reviews,
		providers:   providers,
		effects:     effects,
		log:         log,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		sleep:       sleepContext,
	}
}

// SetRetryPolicy configures how contended transactions are retried.
func (o *Orchestrator) SetRetryPolicy(cfg config.RetryConfig) {
	if n := cfg.GetTxMaxAttempts(); n > 0 {
		o.maxAttempts = n
	}
	if d := cfg.GetTxRetryBaseDelay(); d > 0 {
		o.baseDelay = d
	}
}

// SetMetrics injects the metrics sink.
func (o *Orchestrator) SetMetrics(m *metrics.Metrics) {
	o.metrics = m
}

// SetAppBaseURL sets the origin used for links in notifications and emails.
func (o *Orchestrator) SetAppBaseURL(url string) {
	o.appBaseURL = url
}

// retry runs fn until it succeeds, fails with a non-retryable error, or
// runs out of attempts. fn must re-check its preconditions on every call.
func retry[T any](ctx context.Context, o *Orchestrator, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for attempt := 1; ; attempt++ {
		result, err = fn(ctx)
		if err == nil || !apperr.IsRetryable(err) || attempt >= o.maxAttempts {
			break
		}
		o.log.WithContext(ctx).TxConflict(op, attempt, err)
		o.metrics.TxConflict(op)
		if sleepErr := o.sleep(ctx, o.backoff(attempt)); sleepErr != nil {
			break
		}
	}
	o.observe(op, err)
	return result, err
}

func (o *Orchestrator) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := maxRetryDelay
	if attempt <= 16 {
		d = o.baseDelay << (attempt - 1)
	}
	if d <= 0 || d > maxRetryDelay {
		d = maxRetryDelay
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}

func (o *Orchestrator) observe(op string, err error) {
	switch {
	case err == nil:
		o.metrics.Operation(op, metrics.OutcomeSuccess)
	case apperr.IsRetryable(err):
		o.metrics.Operation(op, metrics.OutcomeConflict)
	case apperr.GetKind(err) == apperr.KindUnknown || apperr.GetKind(err) == apperr.KindInternal:
		o.metrics.Operation(op, metrics.OutcomeError)
	default:
		o.metrics.Operation(op, metrics.OutcomeRejected)
	}
}

func (o *Orchestrator) link(path string) string {
	return o.appBaseURL + path
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
