package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"kazi_backend/internal/domain"
	quotesvc "kazi_backend/internal/quotes/service"
	reviewsvc "kazi_backend/internal/reviews/service"
	"kazi_backend/internal/store"
	"kazi_backend/internal/store/postgres"
	"kazi_backend/platform/apperr"
	"kazi_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newIntegrationStore connects to DATABASE_URL and applies the migrations.
// Tests using it are skipped when the variable is unset.
func newIntegrationStore(t *testing.T) *postgres.Store {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool, postgres.Migrations, postgres.MigrationsDir))

	return postgres.New(pool)
}

func seedJob(t *testing.T, st *postgres.Store) domain.Job {
	t.Helper()
	job, err := domain.NewJob(domain.NewJobParams{ClientID: uuid.New(), Title: "Rewire kitchen"}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, st.CreateJob(context.Background(), job))
	return job
}

func seedQuote(t *testing.T, st *postgres.Store, job domain.Job, amount int64) domain.Quote {
	t.Helper()
	q, err := domain.NewQuote(job, domain.NewQuoteParams{
		ProviderID:  uuid.New(),
		AmountCents: amount,
		Currency:    "KES",
	}, time.Now().UTC())
	require.NoError(t, err)
	q.ClientID = job.ClientID
	require.NoError(t, st.CreateQuote(context.Background(), q))
	return q
}

func TestPostgresAllowsOneAcceptedQuotePerJob(t *testing.T) {
	ctx := context.Background()
	st := newIntegrationStore(t)
	job := seedJob(t, st)
	q1 := seedQuote(t, st, job, 1000)
	q2 := seedQuote(t, st, job, 2000)

	accept := func(q domain.Quote) error {
		return st.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
			if err := q.Accept(time.Now().UTC()); err != nil {
				return err
			}
			return tx.UpdateQuote(ctx, q)
		})
	}

	require.NoError(t, accept(q1))
	assert.ErrorIs(t, accept(q2), store.ErrDuplicate)

	stored, err := st.GetQuote(ctx, q2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotePending, stored.Status)
}

func TestPostgresConcurrentAcceptsYieldOneWinner(t *testing.T) {
	ctx := context.Background()
	st := newIntegrationStore(t)
	svc := quotesvc.New(st)
	job := seedJob(t, st)

	const n = 8
	quotes := make([]domain.Quote, n)
	for i := range quotes {
		res, err := svc.Submit(ctx, quotesvc.SubmitParams{
			JobID:       job.ID,
			ProviderID:  uuid.New(),
			AmountCents: int64(1000 * (i + 1)),
			Currency:    "KES",
		})
		require.NoError(t, err)
		quotes[i] = res.Quote
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
		// Serialization failures surface as retryable contention.
		ok := errors.Is(err, domain.ErrJobNotAcceptingQuotes) || apperr.IsRetryable(err)
		assert.True(t, ok, "unexpected error %v", err)
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

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobAssigned, got.Status)
	require.NotNil(t, got.AcceptedQuoteID)
}

func TestPostgresRejectsSecondReviewForJobAndClient(t *testing.T) {
	ctx := context.Background()
	st := newIntegrationStore(t)
	job := seedJob(t, st)

	providerID := uuid.New()
	require.NoError(t, st.CreateProviderProfile(ctx, domain.ProviderProfile{
		ProviderID:  providerID,
		DisplayName: "Wanjiru Electric",
	}))

	params := domain.NewReviewParams{
		JobID:      job.ID,
		ProviderID: providerID,
		ClientID:   job.ClientID,
		Ratings:    domain.SubRatings{Quality: 5, Timeliness: 4, Professionalism: 3},
		Comment:    "Tidy work",
	}

	// Bypass the service lookups so only the unique index can object.
	insert := func() error {
		r, err := domain.NewReview(params, time.Now().UTC())
		require.NoError(t, err)
		return st.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.CreateReview(ctx, r)
		})
	}
	require.NoError(t, insert())
	assert.ErrorIs(t, insert(), store.ErrDuplicate)

	_, err := reviewsvc.New(st).Submit(ctx, params)
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)
}

func TestPostgresConcurrentReviewsKeepAggregateConsistent(t *testing.T) {
	ctx := context.Background()
	st := newIntegrationStore(t)
	svc := reviewsvc.New(st)

	providerID := uuid.New()
	require.NoError(t, st.CreateProviderProfile(ctx, domain.ProviderProfile{
		ProviderID:  providerID,
		DisplayName: "Otieno Plumbing",
	}))

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		job := seedJob(t, st)
		wg.Add(1)
		go func(i int, job domain.Job) {
			defer wg.Done()
			_, errs[i] = svc.Submit(ctx, domain.NewReviewParams{
				JobID:      job.ID,
				ProviderID: providerID,
				ClientID:   job.ClientID,
				Ratings:    domain.SubRatings{Quality: 4, Timeliness: 4, Professionalism: 4},
				Comment:    "On time",
			})
		}(i, job)
	}
	wg.Wait()

	written := 0
	for _, err := range errs {
		if err == nil {
			written++
			continue
		}
		assert.True(t, apperr.IsRetryable(err), "unexpected error %v", err)
	}

	profile, err := st.GetProviderProfile(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, written, profile.ReviewsCount)
	if written > 0 {
		assert.InDelta(t, 4.0, profile.Rating, 1e-9)
	}

	reviews, err := st.ListReviewsByProvider(ctx, providerID)
	require.NoError(t, err)
	assert.Len(t, reviews, written)
}
