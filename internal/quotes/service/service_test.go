package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store/memstore"
	"kazi_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*Service, *memstore.Store, domain.Job) {
	t.Helper()
	st := memstore.New()
	job, err := domain.NewJob(domain.NewJobParams{ClientID: uuid.New(), Title: "Fix leaking roof"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, st.CreateJob(context.Background(), job))
	return New(st), st, job
}

func submit(t *testing.T, svc *Service, jobID uuid.UUID, amount int64) domain.Quote {
	t.Helper()
	res, err := svc.Submit(context.Background(), SubmitParams{
		JobID:       jobID,
		ProviderID:  uuid.New(),
		AmountCents: amount,
		Currency:    "KES",
		Message:     "Can start Monday",
	})
	require.NoError(t, err)
	return res.Quote
}

func TestSubmitIncrementsCounterAndMovesToPendingQuotes(t *testing.T) {
	ctx := context.Background()
	svc, st, job := newFixture(t)

	q := submit(t, svc, job.ID, 500000)
	assert.Equal(t, domain.QuotePending, q.Status)
	assert.Equal(t, job.ClientID, q.ClientID)

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuotesReceived)
	assert.Equal(t, domain.JobPendingQuotes, got.Status)

	submit(t, svc, job.ID, 450000)
	got, err = st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuotesReceived)
}

func TestSubmitRejectsMismatchedClient(t *testing.T) {
	svc, _, job := newFixture(t)
	_, err := svc.Submit(context.Background(), SubmitParams{
		JobID:       job.ID,
		ProviderID:  uuid.New(),
		ClientID:    uuid.New(),
		AmountCents: 1000,
		Currency:    "KES",
	})
	assert.True(t, apperr.HasCode(err, domain.CodeClientMismatch), "got %v", err)
}

func TestSubmitStateGate(t *testing.T) {
	for _, status := range []domain.JobStatus{domain.JobCompleted, domain.JobCancelled, domain.JobAssigned} {
		t.Run(string(status), func(t *testing.T) {
			ctx := context.Background()
			svc, st, job := newFixture(t)
			job.Status = status
			if status.HasProvider() {
				p := uuid.New()
				job.AssignedProviderID = &p
			}
			require.NoError(t, st.UpdateJob(ctx, job))

			_, err := svc.Submit(ctx, SubmitParams{JobID: job.ID, ProviderID: uuid.New(), AmountCents: 1000, Currency: "KES"})
			assert.ErrorIs(t, err, domain.ErrJobNotAcceptingQuotes)
		})
	}
}

func TestSubmitRejectedAfterReopenOfAcceptedJob(t *testing.T) {
	ctx := context.Background()
	svc, st, job := newFixture(t)
	q := submit(t, svc, job.ID, 500000)
	_, err := svc.Accept(ctx, job.ID, q.ID, job.ClientID)
	require.NoError(t, err)

	reopened, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NoError(t, reopened.Transition(domain.JobOpen, nil, time.Now()))
	require.NoError(t, st.UpdateJob(ctx, reopened))

	_, err = svc.Submit(ctx, SubmitParams{JobID: job.ID, ProviderID: uuid.New(), AmountCents: 1000, Currency: "KES"})
	assert.ErrorIs(t, err, domain.ErrJobNotAcceptingQuotes)
	assert.True(t, apperr.HasCode(err, domain.CodeJobNotAcceptingQuotes), "got %v", err)

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuotesReceived)
	quotes, err := st.ListQuotesByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
}

func TestSubmitUnknownJob(t *testing.T) {
	svc, _, _ := newFixture(t)
	_, err := svc.Submit(context.Background(), SubmitParams{JobID: uuid.New(), ProviderID: uuid.New(), AmountCents: 1000, Currency: "KES"})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestConcurrentSubmitsCountEveryQuote(t *testing.T) {
	ctx := context.Background()
	svc, st, job := newFixture(t)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, SubmitParams{JobID: job.ID, ProviderID: uuid.New(), AmountCents: 1000, Currency: "KES"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.QuotesReceived)
	quotes, err := st.ListQuotesByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, quotes, n)
}

func TestAcceptScenarioSecondQuoteHitsStateGate(t *testing.T) {
	ctx := context.Background()
	svc, st, job := newFixture(t)
	q1 := submit(t, svc, job.ID, 500000)
	q2 := submit(t, svc, job.ID, 450000)

	res, err := svc.Accept(ctx, job.ID, q1.ID, job.ClientID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteAccepted, res.Quote.Status)
	assert.Equal(t, domain.JobAssigned, res.Job.Status)
	require.NotNil(t, res.Job.AssignedProviderID)
	assert.Equal(t, q1.ProviderID, *res.Job.AssignedProviderID)

	_, err = svc.Accept(ctx, job.ID, q2.ID, job.ClientID)
	assert.ErrorIs(t, err, domain.ErrJobNotAcceptingQuotes)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	stored, err := st.GetQuote(ctx, q2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotePending, stored.Status)
}

func TestAcceptRequiresJobOwner(t *testing.T) {
	ctx := context.Background()
	svc, st, job := newFixture(t)
	q := submit(t, svc, job.ID, 500000)

	_, err := svc.Accept(ctx, job.ID, q.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	stored, err := st.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotePending, stored.Status)
}

func TestAcceptPreconditions(t *testing.T) {
	ctx := context.Background()
	svc, _, job := newFixture(t)
	q := submit(t, svc, job.ID, 500000)

	_, err := svc.Accept(ctx, job.ID, uuid.New(), job.ClientID)
	assert.ErrorIs(t, err, domain.ErrQuoteNotFound)

	_, err = svc.Accept(ctx, uuid.New(), q.ID, job.ClientID)
	assert.ErrorIs(t, err, domain.ErrQuoteJobMismatch)

	_, err = svc.Reject(ctx, q.ID, job.ClientID)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, job.ID, q.ID, job.ClientID)
	assert.ErrorIs(t, err, domain.ErrQuoteNotPending)
}

func TestConcurrentAcceptsYieldOneWinner(t *testing.T) {
	ctx := context.Background()
	svc, st, job := newFixture(t)

	const n = 10
	quotes := make([]domain.Quote, n)
	for i := range quotes {
		quotes[i] = submit(t, svc, job.ID, int64(1000*(i+1)))
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range quotes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Accept(ctx, job.ID, quotes[i].ID, job.ClientID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrJobNotAcceptingQuotes), "unexpected error %v", err)
	}
	assert.Equal(t, 1, wins)

	stored, err := st.ListQuotesByJob(ctx, job.ID)
	require.NoError(t, err)
	accepted := 0
	for _, q := range stored {
		if q.Status == domain.QuoteAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestAcceptConflictIsRetryable(t *testing.T) {
	ctx := context.Background()
	svc, st, job := newFixture(t)
	q := submit(t, svc, job.ID, 500000)

	st.InjectConflicts(1)
	_, err := svc.Accept(ctx, job.ID, q.ID, job.ClientID)
	require.Error(t, err)
	assert.True(t, apperr.IsRetryable(err))

	stored, err := st.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotePending, stored.Status, "aborted transaction must not leak writes")

	_, err = svc.Accept(ctx, job.ID, q.ID, job.ClientID)
	require.NoError(t, err)
}

func TestRejectRequiresOwnerAndPending(t *testing.T) {
	ctx := context.Background()
	svc, _, job := newFixture(t)
	q := submit(t, svc, job.ID, 500000)

	_, err := svc.Reject(ctx, q.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	rejected, err := svc.Reject(ctx, q.ID, job.ClientID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteRejected, rejected.Status)

	_, err = svc.Reject(ctx, q.ID, job.ClientID)
	assert.ErrorIs(t, err, domain.ErrQuoteNotPending)
}

func TestListForJobVisibility(t *testing.T) {
	ctx := context.Background()
	svc, _, job := newFixture(t)
	q1 := submit(t, svc, job.ID, 500000)
	submit(t, svc, job.ID, 450000)

	all, err := svc.ListForJob(ctx, job.ID, job.ClientID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListForJob(ctx, job.ID, q1.ProviderID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, q1.ID, own[0].ID)
}
