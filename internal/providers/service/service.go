// Package service manages provider profiles and their public reviews.
package service

import (
	"context"
	"errors"
	"time"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
)

const (
	opRegister    = "providers.service.register"
	opGet         = "providers.service.get"
	opListReviews = "providers.service.list_reviews"
)

// Service provides business logic for provider profiles.
type Service struct {
	store store.Gateway
	now   func() time.Time
}

// New creates a new providers service.
func New(gw store.Gateway) *Service {
	return &Service{store: gw, now: time.Now}
}

// Register creates a provider profile with an empty aggregate. Registering
// an existing provider returns the stored profile unchanged.
func (s *Service) Register(ctx context.Context, providerID uuid.UUID, displayName, email string) (domain.ProviderProfile, bool, error) {
	profile, err := domain.NewProviderProfile(providerID, displayName, email, s.now().UTC())
	if err != nil {
		return domain.ProviderProfile{}, false, err
	}

	err = s.store.CreateProviderProfile(ctx, profile)
	if errors.Is(err, store.ErrDuplicate) {
		existing, getErr := s.store.GetProviderProfile(ctx, providerID)
		if getErr != nil {
			return domain.ProviderProfile{}, false, store.MapError(getErr, domain.ErrProviderNotFound, opRegister)
		}
		return existing, false, nil
	}
	if err != nil {
		return domain.ProviderProfile{}, false, store.MapError(err, nil, opRegister)
	}
	return profile, true, nil
}

// Get returns a provider's profile with its rating aggregate.
func (s *Service) Get(ctx context.Context, providerID uuid.UUID) (domain.ProviderProfile, error) {
	p, err := s.store.GetProviderProfile(ctx, providerID)
	if err != nil {
		return domain.ProviderProfile{}, store.MapError(err, domain.ErrProviderNotFound, opGet)
	}
	return p, nil
}

// ListReviews returns a provider's reviews, newest first.
func (s *Service) ListReviews(ctx context.Context, providerID uuid.UUID) ([]domain.Review, error) {
	if _, err := s.Get(ctx, providerID); err != nil {
		return nil, err
	}
	reviews, err := s.store.ListReviewsByProvider(ctx, providerID)
	if err != nil {
		return nil, store.MapError(err, nil, opListReviews)
	}
	return reviews, nil
}
