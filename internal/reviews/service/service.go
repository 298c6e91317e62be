// Package service implements the review aggregator: it commits a review
// and folds its composite rating into the provider's running mean in one
// transaction.
package service

import (
	"context"
	"errors"
	"time"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
)

const opSubmit = "reviews.service.submit"

// Service provides business logic for reviews.
type Service struct {
	store store.Gateway
	now   func() time.Time
}

// New creates a new reviews service.
func New(gw store.Gateway) *Service {
	return &Service{store: gw, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Result is the committed review and the provider aggregate it produced.
type Result struct {
	Review    domain.Review
	Aggregate domain.ProviderAggregate
}

// Submit validates the ratings, then in a single transaction re-reads the
// provider's aggregate, re-checks that the (job, client) pair has no review,
// writes the review and stores the new running mean.
//
// The duplicate lookup before the transaction only saves a wasted attempt;
// the lookup inside it, backed by the store's unique constraint, is what
// enforces one review per pair.
func (s *Service) Submit(ctx context.Context, p domain.NewReviewParams) (Result, error) {
	review, err := domain.NewReview(p, s.now().UTC())
	if err != nil {
		return Result{}, err
	}

	if _, err := s.store.FindReview(ctx, p.JobID, p.ClientID); err == nil {
		return Result{}, domain.ErrDuplicateReview.WithOp(opSubmit)
	} else if !errors.Is(err, store.ErrNotFound) {
		return Result{}, store.MapError(err, nil, opSubmit)
	}

	var result Result
	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		profile, err := tx.GetProviderProfile(ctx, p.ProviderID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrProviderNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.FindReview(ctx, p.JobID, p.ClientID); err == nil {
			return domain.ErrDuplicateReview
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		agg := profile.ProviderAggregate.Fold(review.Rating)
		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}
		if err := tx.SetProviderAggregate(ctx, p.ProviderID, agg); err != nil {
			return err
		}
		result = Result{Review: review, Aggregate: agg}
		return nil
	})
	if errors.Is(err, store.ErrDuplicate) {
		return Result{}, domain.ErrDuplicateReview.WithOp(opSubmit)
	}
	if err != nil {
		return Result{}, store.MapError(err, domain.ErrProviderNotFound, opSubmit)
	}
	return result, nil
}

// HasReviewed reports whether clientID already reviewed jobID.
func (s *Service) HasReviewed(ctx context.Context, jobID, clientID uuid.UUID) (bool, error) {
	_, err := s.store.FindReview(ctx, jobID, clientID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, store.MapError(err, nil, "reviews.service.has_reviewed")
	}
}
