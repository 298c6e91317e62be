package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedJob(t *testing.T, s *Store) domain.Job {
	t.Helper()
	job, err := domain.NewJob(domain.NewJobParams{ClientID: uuid.New(), Title: "Paint fence"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.CreateJob(context.Background(), job))
	return job
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	job := seedJob(t, s)
	errBoom := errors.New("boom")

	err := s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.IncrementQuotesReceived(ctx, job.ID))
		got, err := tx.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.QuotesReceived, "reads see the transaction's own writes")
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuotesReceived)
}

func TestInjectedConflictDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	job := seedJob(t, s)
	s.InjectConflicts(1)

	err := s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.IncrementQuotesReceived(ctx, job.ID)
	})
	require.ErrorIs(t, err, store.ErrConflict)

	err = s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.IncrementQuotesReceived(ctx, job.ID)
	})
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuotesReceived)
	assert.Equal(t, 2, s.Transactions())
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()
	job := seedJob(t, s)

	review := domain.Review{ID: uuid.New(), JobID: job.ID, ClientID: job.ClientID, ProviderID: uuid.New()}
	require.NoError(t, s.CreateReview(ctx, review))
	review.ID = uuid.New()
	assert.ErrorIs(t, s.CreateReview(ctx, review), store.ErrDuplicate)

	q1 := domain.Quote{ID: uuid.New(), JobID: job.ID, ClientID: job.ClientID, Status: domain.QuotePending}
	q2 := domain.Quote{ID: uuid.New(), JobID: job.ID, ClientID: job.ClientID, Status: domain.QuotePending}
	require.NoError(t, s.CreateQuote(ctx, q1))
	require.NoError(t, s.CreateQuote(ctx, q2))

	q1.Status = domain.QuoteAccepted
	require.NoError(t, s.UpdateQuote(ctx, q1))
	q2.Status = domain.QuoteAccepted
	assert.ErrorIs(t, s.UpdateQuote(ctx, q2), store.ErrDuplicate)
}

func TestUpdateJobPreservesCounter(t *testing.T) {
	ctx := context.Background()
	s := New()
	job := seedJob(t, s)
	require.NoError(t, s.IncrementQuotesReceived(ctx, job.ID))

	job.Status = domain.JobCancelled
	job.QuotesReceived = 0
	require.NoError(t, s.UpdateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCancelled, got.Status)
	assert.Equal(t, 1, got.QuotesReceived)
}

func TestMissingDocuments(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.GetJob(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindReview(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.SetProviderAggregate(ctx, uuid.New(), domain.ProviderAggregate{}), store.ErrNotFound)
}
