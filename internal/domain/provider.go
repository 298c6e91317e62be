package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProviderAggregate is the running mean of every review committed for a
// provider and the number of reviews folded into it.
type ProviderAggregate struct {
	Rating       float64
	ReviewsCount int
}

// Fold adds one composite rating to the running mean without rescanning
// history.
func (a ProviderAggregate) Fold(composite float64) ProviderAggregate {
	n := float64(a.ReviewsCount)
	return ProviderAggregate{
		Rating:       (a.Rating*n + composite) / (n + 1),
		ReviewsCount: a.ReviewsCount + 1,
	}
}

// ProviderProfile is the provider's public record.
type ProviderProfile struct {
	ProviderID  uuid.UUID
	DisplayName string
	Email       string
	ProviderAggregate
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProviderProfile builds a profile with an empty aggregate.
func NewProviderProfile(providerID uuid.UUID, displayName, email string, now time.Time) (ProviderProfile, error) {
	if providerID == uuid.Nil {
		return ProviderProfile{}, ValidationError("providerId", "provider is required")
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		return ProviderProfile{}, ValidationError("displayName", "display name is required")
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return ProviderProfile{}, ValidationError("email", "email is invalid")
		}
	}
	return ProviderProfile{
		ProviderID:  providerID,
		DisplayName: name,
		Email:       email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
