package service

import (
	"context"
	"fmt"
	"math"
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

func seedProvider(t *testing.T, st *memstore.Store, agg domain.ProviderAggregate) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	profile, err := domain.NewProviderProfile(id, "Wanjiru Plumbing", "wanjiru@example.com", time.Now())
	require.NoError(t, err)
	require.NoError(t, st.CreateProviderProfile(ctx, profile))
	require.NoError(t, st.SetProviderAggregate(ctx, id, agg))
	return id
}

func params(providerID uuid.UUID, q, tl, p int) domain.NewReviewParams {
	return domain.NewReviewParams{
		JobID:      uuid.New(),
		ProviderID: providerID,
		ClientID:   uuid.New(),
		Ratings:    domain.SubRatings{Quality: q, Timeliness: tl, Professionalism: p},
		Comment:    "Solid work",
	}
}

func TestSubmitFoldsIntoRunningMean(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := New(st)
	providerID := seedProvider(t, st, domain.ProviderAggregate{Rating: 4.0, ReviewsCount: 2})

	res, err := svc.Submit(ctx, params(providerID, 5, 5, 4))
	require.NoError(t, err)

	assert.InDelta(t, 4.667, res.Review.Rating, 1e-3)
	assert.InDelta(t, 4.222, res.Aggregate.Rating, 1e-3)
	assert.Equal(t, 3, res.Aggregate.ReviewsCount)

	profile, err := st.GetProviderProfile(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, res.Aggregate, profile.ProviderAggregate)
}

func TestSubmitValidatesBeforeStoreAccess(t *testing.T) {
	st := memstore.New()
	svc := New(st)

	_, err := svc.Submit(context.Background(), params(uuid.New(), 6, 5, 4))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	p := params(uuid.New(), 5, 5, 4)
	p.Comment = ""
	_, err = svc.Submit(context.Background(), p)
	assert.True(t, apperr.HasCode(err, domain.CodeValidation))
	assert.Equal(t, 0, st.Transactions())
}

func TestSubmitUnknownProvider(t *testing.T) {
	svc := New(memstore.New())
	_, err := svc.Submit(context.Background(), params(uuid.New(), 5, 5, 5))
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}

func TestSubmitTwiceIsDuplicate(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := New(st)
	providerID := seedProvider(t, st, domain.ProviderAggregate{})

	p := params(providerID, 4, 4, 4)
	_, err := svc.Submit(ctx, p)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, p)
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)

	profile, err := st.GetProviderProfile(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.ReviewsCount)
}

func TestConcurrentDuplicateSubmissionsCommitOnce(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := New(st)
	providerID := seedProvider(t, st, domain.ProviderAggregate{})
	p := params(providerID, 3, 4, 5)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(ctx, p)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateReview)
	}
	assert.Equal(t, 1, ok)

	reviews, err := st.ListReviewsByProvider(ctx, providerID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestConcurrentReviewsAggregateExactly(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := New(st)
	providerID := seedProvider(t, st, domain.ProviderAggregate{})

	ratings := []domain.SubRatings{
		{Quality: 5, Timeliness: 5, Professionalism: 5}, {Quality: 1, Timeliness: 2, Professionalism: 3}, {Quality: 4, Timeliness: 4, Professionalism: 5}, {Quality: 3, Timeliness: 3, Professionalism: 3}, {Quality: 5, Timeliness: 4, Professionalism: 4},
		{Quality: 2, Timeliness: 2, Professionalism: 1}, {Quality: 5, Timeliness: 5, Professionalism: 4}, {Quality: 4, Timeliness: 3, Professionalism: 4}, {Quality: 1, Timeliness: 1, Professionalism: 1}, {Quality: 5, Timeliness: 3, Professionalism: 2},
	}

	var wg sync.WaitGroup
	for i, r := range ratings {
		wg.Add(1)
		go func(i int, r domain.SubRatings) {
			defer wg.Done()
			p := params(providerID, r.Quality, r.Timeliness, r.Professionalism)
			p.Comment = fmt.Sprintf("review %d", i)
			_, err := svc.Submit(ctx, p)
			assert.NoError(t, err)
		}(i, r)
	}
	wg.Wait()

	var sum float64
	for _, r := range ratings {
		sum += r.Composite()
	}
	profile, err := st.GetProviderProfile(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, len(ratings), profile.ReviewsCount)
	assert.True(t, math.Abs(profile.Rating-sum/float64(len(ratings))) < 1e-9, "rating %f", profile.Rating)
}

func TestAbortedTransactionLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := New(st)
	providerID := seedProvider(t, st, domain.ProviderAggregate{Rating: 3, ReviewsCount: 1})
	p := params(providerID, 5, 5, 5)

	st.InjectConflicts(1)
	_, err := svc.Submit(ctx, p)
	require.Error(t, err)
	assert.True(t, apperr.IsRetryable(err))

	reviewed, err := svc.HasReviewed(ctx, p.JobID, p.ClientID)
	require.NoError(t, err)
	assert.False(t, reviewed)
	profile, err := st.GetProviderProfile(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderAggregate{Rating: 3, ReviewsCount: 1}, profile.ProviderAggregate)
}
