package transport

import (
	"time"

	"kazi_backend/internal/domain"

	"github.com/google/uuid"
)

// SubmitReviewRequest is the request body for reviewing a completed job.
// ProviderID is optional; the job's assigned provider is always the one rated.
type SubmitReviewRequest struct {
	ProviderID            *uuid.UUID `json:"providerId"`
	QualityRating         int        `json:"qualityRating" validate:"required,min=1,max=5"`
	TimelinessRating      int        `json:"timelinessRating" validate:"required,min=1,max=5"`
	ProfessionalismRating int        `json:"professionalismRating" validate:"required,min=1,max=5"`
	Comment               string     `json:"comment" validate:"required,notblank,max=4000"`
}

// ReviewResponse is the public shape of a review.
type ReviewResponse struct {
	ID                    uuid.UUID `json:"id"`
	JobID                 uuid.UUID `json:"jobId"`
	ProviderID            uuid.UUID `json:"providerId"`
	ClientID              uuid.UUID `json:"clientId"`
	QualityRating         int       `json:"qualityRating"`
	TimelinessRating      int       `json:"timelinessRating"`
	ProfessionalismRating int       `json:"professionalismRating"`
	Rating                float64   `json:"rating"`
	Comment               string    `json:"comment"`
	ReviewDate            time.Time `json:"reviewDate"`
}

// AggregateResponse is a provider's running rating.
type AggregateResponse struct {
	Rating       float64 `json:"rating"`
	ReviewsCount int     `json:"reviewsCount"`
}

// SubmitReviewResponse is the stored review and the provider's new aggregate.
type SubmitReviewResponse struct {
	Review            ReviewResponse    `json:"review"`
	ProviderAggregate AggregateResponse `json:"providerAggregate"`
}

// ToReviewResponse maps a domain review to its response.
func ToReviewResponse(r domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:                    r.ID,
		JobID:                 r.JobID,
		ProviderID:            r.ProviderID,
		ClientID:              r.ClientID,
		QualityRating:         r.QualityRating,
		TimelinessRating:      r.TimelinessRating,
		ProfessionalismRating: r.ProfessionalismRating,
		Rating:                r.Rating,
		Comment:               r.Comment,
		ReviewDate:            r.ReviewDate,
	}
}

// ToAggregateResponse maps a provider aggregate.
func ToAggregateResponse(a domain.ProviderAggregate) AggregateResponse {
	return AggregateResponse{Rating: a.Rating, ReviewsCount: a.ReviewsCount}
}
