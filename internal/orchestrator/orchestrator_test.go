package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"kazi_backend/internal/domain"
	jobsvc "kazi_backend/internal/jobs/service"
	providersvc "kazi_backend/internal/providers/service"
	quotesvc "kazi_backend/internal/quotes/service"
	reviewsvc "kazi_backend/internal/reviews/service"
	"kazi_backend/internal/sideeffect"
	"kazi_backend/internal/store/memstore"
	"kazi_backend/platform/apperr"
	"kazi_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEffects struct {
	mu            sync.Mutex
	notifications []sideeffect.Notification
	chats         []sideeffect.ChatRequest
	emails        []sideeffect.EmailMessage
	chatID        string
	fail          bool
}

func (f *fakeEffects) Notify(_ context.Context, n sideeffect.Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, n)
	return !f.fail
}

func (f *fakeEffects) ProvisionChat(_ context.Context, req sideeffect.ChatRequest) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, req)
	if f.fail {
		return ""
	}
	return f.chatID
}

func (f *fakeEffects) SendEmail(_ context.Context, msg sideeffect.EmailMessage) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, msg)
	return !f.fail
}

func (f *fakeEffects) notificationsFor(userID uuid.UUID) []sideeffect.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sideeffect.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type retryPolicy struct {
	attempts int
}

func (p retryPolicy) GetTxMaxAttempts() int              { return p.attempts }
func (p retryPolicy) GetTxRetryBaseDelay() time.Duration { return time.Millisecond }

type fixture struct {
	store     *memstore.Store
	effects   *fakeEffects
	orch      *Orchestrator
	providers *providersvc.Service
	client    uuid.UUID
	provider  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	effects := &fakeEffects{chatID: "chat-1"}
	providers := providersvc.New(st)
	orch := New(jobsvc.New(st), quotesvc.New(st), reviewsvc.New(st), providers, effects, logger.Discard())
	orch.SetAppBaseURL("https://kazi.test")
	orch.sleep = func(context.Context, time.Duration) error { return nil }

	f := &fixture{
		store:     st,
		effects:   effects,
		orch:      orch,
		providers: providers,
		client:    uuid.New(),
		provider:  uuid.New(),
	}
	_, _, err := providers.Register(context.Background(), f.provider, "Amani Fundi", "amani@example.com")
	require.NoError(t, err)
	return f
}

func (f *fixture) postJob(t *testing.T) domain.Job {
	t.Helper()
	job, err := f.orch.PostJob(context.Background(), domain.NewJobParams{ClientID: f.client, Title: "Fix roof"})
	require.NoError(t, err)
	return job
}

func (f *fixture) quote(t *testing.T, jobID, providerID uuid.UUID) domain.Quote {
	t.Helper()
	q, err := f.orch.SubmitQuote(context.Background(), quotesvc.SubmitParams{
		JobID:       jobID,
		ProviderID:  providerID,
		AmountCents: 150050,
		Currency:    "KES",
	})
	require.NoError(t, err)
	return q
}

func (f *fixture) assigned(t *testing.T) (domain.Job, domain.Quote) {
	t.Helper()
	job := f.postJob(t)
	q := f.quote(t, job.ID, f.provider)
	res, err := f.orch.AcceptQuote(context.Background(), job.ID, q.ID, f.client)
	require.NoError(t, err)
	return res.Job, res.Quote
}

func TestSubmitQuoteNotifiesClient(t *testing.T) {
	f := newFixture(t)
	job := f.postJob(t)
	f.quote(t, job.ID, f.provider)

	got := f.effects.notificationsFor(f.client)
	require.Len(t, got, 1)
	assert.Equal(t, sideeffect.TypeQuoteReceived, got[0].Type)
	assert.Equal(t, job.ID, got[0].RelatedEntityID)
	assert.Contains(t, got[0].Message, "KES 1500.50")
	assert.Equal(t, "https://kazi.test/jobs/"+job.ID.String(), got[0].Link)
}

func TestAcceptQuoteAssignsAndFansOut(t *testing.T) {
	f := newFixture(t)
	job := f.postJob(t)
	q := f.quote(t, job.ID, f.provider)

	res, err := f.orch.AcceptQuote(context.Background(), job.ID, q.ID, f.client)
	require.NoError(t, err)

	assert.Equal(t, "chat-1", res.ChatID)
	assert.Equal(t, domain.QuoteAccepted, res.Quote.Status)
	assert.Equal(t, domain.JobAssigned, res.Job.Status)
	require.NotNil(t, res.Job.AssignedProviderID)
	assert.Equal(t, f.provider, *res.Job.AssignedProviderID)

	require.Len(t, f.effects.chats, 1)
	assert.Equal(t, sideeffect.ChatRequest{UserA: f.client, UserB: f.provider, JobID: job.ID}, f.effects.chats[0])

	providerNotes := f.effects.notificationsFor(f.provider)
	require.Len(t, providerNotes, 1)
	assert.Equal(t, sideeffect.TypeQuoteAccepted, providerNotes[0].Type)
	assert.Equal(t, "https://kazi.test/chats/chat-1", providerNotes[0].Link)

	require.Len(t, f.effects.emails, 1)
	email := f.effects.emails[0]
	assert.Equal(t, sideeffect.TemplateQuoteAccepted, email.Template)
	assert.Equal(t, "amani@example.com", email.To)
	assert.Equal(t, int64(150050), email.AmountCents)
}

func TestAcceptQuoteSucceedsWhenSideEffectsFail(t *testing.T) {
	f := newFixture(t)
	f.effects.fail = true
	job := f.postJob(t)
	q := f.quote(t, job.ID, f.provider)

	res, err := f.orch.AcceptQuote(context.Background(), job.ID, q.ID, f.client)
	require.NoError(t, err)
	assert.Empty(t, res.ChatID)

	stored, err := f.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobAssigned, stored.Status)
	assert.Equal(t, "https://kazi.test/jobs/"+job.ID.String(), f.effects.notificationsFor(f.provider)[0].Link)
}

func TestAcceptQuoteRetriesContention(t *testing.T) {
	f := newFixture(t)
	job := f.postJob(t)
	q := f.quote(t, job.ID, f.provider)

	before := f.store.Transactions()
	f.store.InjectConflicts(2)
	res, err := f.orch.AcceptQuote(context.Background(), job.ID, q.ID, f.client)
	require.NoError(t, err)
	assert.Equal(t, domain.JobAssigned, res.Job.Status)
	assert.Equal(t, 3, f.store.Transactions()-before)
}

func TestAcceptQuoteGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	f.orch.SetRetryPolicy(retryPolicy{attempts: 2})
	job := f.postJob(t)
	q := f.quote(t, job.ID, f.provider)

	f.store.InjectConflicts(5)
	_, err := f.orch.AcceptQuote(context.Background(), job.ID, q.ID, f.client)
	require.Error(t, err)
	assert.True(t, apperr.IsRetryable(err))
	assert.Empty(t, f.effects.chats)

	stored, err := f.store.GetQuote(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotePending, stored.Status)
}

func TestSecondAcceptFailsStateGate(t *testing.T) {
	f := newFixture(t)
	job := f.postJob(t)
	first := f.quote(t, job.ID, f.provider)
	second := f.quote(t, job.ID, uuid.New())

	_, err := f.orch.AcceptQuote(context.Background(), job.ID, first.ID, f.client)
	require.NoError(t, err)

	_, err = f.orch.AcceptQuote(context.Background(), job.ID, second.ID, f.client)
	assert.ErrorIs(t, err, domain.ErrJobNotAcceptingQuotes)

	stored, err := f.store.GetQuote(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotePending, stored.Status)
}

func TestAcceptQuoteRejectsOtherClient(t *testing.T) {
	f := newFixture(t)
	job := f.postJob(t)
	q := f.quote(t, job.ID, f.provider)

	_, err := f.orch.AcceptQuote(context.Background(), job.ID, q.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, f.effects.chats)
}

func TestRejectQuoteNotifiesProvider(t *testing.T) {
	f := newFixture(t)
	job := f.postJob(t)
	q := f.quote(t, job.ID, f.provider)

	rejected, err := f.orch.RejectQuote(context.Background(), q.ID, f.client)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteRejected, rejected.Status)

	got := f.effects.notificationsFor(f.provider)
	require.Len(t, got, 1)
	assert.Equal(t, sideeffect.TypeQuoteRejected, got[0].Type)
}

func TestJobLifecycleToReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job, _ := f.assigned(t)

	_, err := f.orch.StartJob(ctx, job.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	started, err := f.orch.StartJob(ctx, job.ID, f.provider)
	require.NoError(t, err)
	assert.Equal(t, domain.JobInProgress, started.Status)

	_, err = f.orch.MarkComplete(ctx, job.ID, f.provider)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	done, err := f.orch.MarkComplete(ctx, job.ID, f.client)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, done.Status)

	res, err := f.orch.SubmitReview(ctx, ReviewParams{
		JobID:    job.ID,
		ClientID: f.client,
		Ratings:  domain.SubRatings{Quality: 5, Timeliness: 4, Professionalism: 3},
		Comment:  "Solid work",
	})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, res.Review.Rating, 1e-9)
	assert.Equal(t, 1, res.Aggregate.ReviewsCount)

	profile, err := f.providers.Get(ctx, f.provider)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, profile.Rating, 1e-9)

	last := f.effects.emails[len(f.effects.emails)-1]
	assert.Equal(t, sideeffect.TemplateReviewReceived, last.Template)
	assert.Equal(t, "Solid work", last.Comment)

	_, err = f.orch.SubmitReview(ctx, ReviewParams{
		JobID:    job.ID,
		ClientID: f.client,
		Ratings:  domain.SubRatings{Quality: 1, Timeliness: 1, Professionalism: 1},
		Comment:  "Changed my mind",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)
}

func TestMarkCompleteRequiresAssignment(t *testing.T) {
	f := newFixture(t)
	job := f.postJob(t)

	_, err := f.orch.MarkComplete(context.Background(), job.ID, f.client)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSubmitReviewGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job, _ := f.assigned(t)
	ratings := domain.SubRatings{Quality: 5, Timeliness: 5, Professionalism: 5}

	_, err := f.orch.SubmitReview(ctx, ReviewParams{JobID: job.ID, ClientID: f.client, Ratings: ratings, Comment: "Early"})
	assert.ErrorIs(t, err, domain.ErrJobNotReviewable)

	_, err = f.orch.MarkComplete(ctx, job.ID, f.client)
	require.NoError(t, err)

	_, err = f.orch.SubmitReview(ctx, ReviewParams{JobID: job.ID, ClientID: uuid.New(), Ratings: ratings, Comment: "Not mine"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.orch.SubmitReview(ctx, ReviewParams{JobID: job.ID, ClientID: f.client, ProviderID: uuid.New(), Ratings: ratings, Comment: "Wrong one"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSubmitReviewRetriesContention(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job, _ := f.assigned(t)
	_, err := f.orch.MarkComplete(ctx, job.ID, f.client)
	require.NoError(t, err)

	f.store.InjectConflicts(1)
	res, err := f.orch.SubmitReview(ctx, ReviewParams{
		JobID:    job.ID,
		ClientID: f.client,
		Ratings:  domain.SubRatings{Quality: 3, Timeliness: 3, Professionalism: 3},
		Comment:  "Fine",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Aggregate.ReviewsCount)

	profile, err := f.providers.Get(ctx, f.provider)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.ReviewsCount)
}

func TestCancelNotifiesReleasedProvider(t *testing.T) {
	f := newFixture(t)
	job, _ := f.assigned(t)

	cancelled, err := f.orch.CancelJob(context.Background(), job.ID, f.client)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCancelled, cancelled.Status)
	assert.Nil(t, cancelled.AssignedProviderID)

	got := f.effects.notificationsFor(f.provider)
	assert.Equal(t, sideeffect.TypeJobCancelled, got[len(got)-1].Type)

	_, err = f.orch.CancelJob(context.Background(), job.ID, f.client)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRaiseDisputeNotifiesCounterpart(t *testing.T) {
	f := newFixture(t)
	job, _ := f.assigned(t)

	_, err := f.orch.RaiseDispute(context.Background(), job.ID, uuid.New(), "no show")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	disputed, err := f.orch.RaiseDispute(context.Background(), job.ID, f.provider, "client unreachable")
	require.NoError(t, err)
	assert.Equal(t, domain.JobDisputed, disputed.Status)

	got := f.effects.notificationsFor(f.client)
	last := got[len(got)-1]
	assert.Equal(t, sideeffect.TypeJobDisputed, last.Type)
	assert.Contains(t, last.Message, "client unreachable")
}

func TestReopenKeepsAcceptedQuote(t *testing.T) {
	f := newFixture(t)
	job, q := f.assigned(t)

	reopened, err := f.orch.ReopenJob(context.Background(), job.ID, f.client)
	require.NoError(t, err)
	assert.Equal(t, domain.JobOpen, reopened.Status)
	assert.Nil(t, reopened.AssignedProviderID)
	require.NotNil(t, reopened.AcceptedQuoteID)
	assert.Equal(t, q.ID, *reopened.AcceptedQuoteID)

	got := f.effects.notificationsFor(f.provider)
	assert.Equal(t, sideeffect.TypeJobReopened, got[len(got)-1].Type)

	other := f.quote(t, job.ID, uuid.New())
	_, err = f.orch.AcceptQuote(context.Background(), job.ID, other.ID, f.client)
	assert.ErrorIs(t, err, domain.ErrJobNotAcceptingQuotes)
}

func TestBackoffStaysWithinCap(t *testing.T) {
	o := &Orchestrator{baseDelay: 25 * time.Millisecond}
	for attempt := 1; attempt <= 40; attempt++ {
		d := o.backoff(attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, maxRetryDelay)
	}
}

func TestBackoffLargeAttemptsUseFullCap(t *testing.T) {
	o := &Orchestrator{baseDelay: 25 * time.Millisecond}
	// Shifts past 16 overflow; they must land on the cap.
	for _, attempt := range []int{17, 40, 64, 1000} {
		d := o.backoff(attempt)
		assert.GreaterOrEqual(t, d, maxRetryDelay/2, "attempt %d", attempt)
		assert.LessOrEqual(t, d, maxRetryDelay, "attempt %d", attempt)
	}
}
