package transport

import (
	"time"

	"kazi_backend/internal/domain"
	reviewtransport "kazi_backend/internal/reviews/transport"

	"github.com/google/uuid"
)

// RegisterProviderRequest creates or fetches the caller's provider profile.
type RegisterProviderRequest struct {
	DisplayName string `json:"displayName" validate:"required,notblank,max=200"`
	Email       string `json:"email" validate:"omitempty,email,max=320"`
}

// ProviderResponse is the public shape of a provider profile.
type ProviderResponse struct {
	ProviderID   uuid.UUID `json:"providerId"`
	DisplayName  string    `json:"displayName"`
	Rating       float64   `json:"rating"`
	ReviewsCount int       `json:"reviewsCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ReviewListResponse wraps a provider's reviews, newest first.
type ReviewListResponse struct {
	Items []reviewtransport.ReviewResponse `json:"items"`
	Total int                              `json:"total"`
}

// ToProviderResponse maps a profile. The contact email stays private.
func ToProviderResponse(p domain.ProviderProfile) ProviderResponse {
	return ProviderResponse{
		ProviderID:   p.ProviderID,
		DisplayName:  p.DisplayName,
		Rating:       p.Rating,
		ReviewsCount: p.ReviewsCount,
		CreatedAt:    p.CreatedAt,
	}
}

// ToReviewListResponse maps a slice of reviews.
func ToReviewListResponse(reviews []domain.Review) ReviewListResponse {
	items := make([]reviewtransport.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, reviewtransport.ToReviewResponse(r))
	}
	return ReviewListResponse{Items: items, Total: len(items)}
}
