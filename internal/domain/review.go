package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinSubRating = 1
	MaxSubRating = 5
)

// Review is a client's rating of the provider who completed their job.
// At most one exists per (JobID, ClientID).
type Review struct {
	ID                    uuid.UUID
	JobID                 uuid.UUID
	ProviderID            uuid.UUID
	ClientID              uuid.UUID
	QualityRating         int
	TimelinessRating      int
	ProfessionalismRating int
	Rating                float64
	Comment               string
	ReviewDate            time.Time
}

// SubRatings are the three scores a client gives.
type SubRatings struct {
	Quality         int
	Timeliness      int
	Professionalism int
}

// Validate checks every score lies in [MinSubRating, MaxSubRating].
func (s SubRatings) Validate() error {
	checks := []struct {
		field string
		value int
	}{
		{"qualityRating", s.Quality},
		{"timelinessRating", s.Timeliness},
		{"professionalismRating", s.Professionalism},
	}
	for _, c := range checks {
		if c.value < MinSubRating || c.value > MaxSubRating {
			return ValidationError(c.field, "rating must be an integer between 1 and 5")
		}
	}
	return nil
}

// Composite is the arithmetic mean of the three scores.
func (s SubRatings) Composite() float64 {
	return float64(s.Quality+s.Timeliness+s.Professionalism) / 3
}

// NewReviewParams carries the inputs of a review submission.
type NewReviewParams struct {
	JobID      uuid.UUID
	ProviderID uuid.UUID
	ClientID   uuid.UUID
	Ratings    SubRatings
	Comment    string
}

// Validate runs the checks that need no store access.
func (p NewReviewParams) Validate() error {
	if p.JobID == uuid.Nil {
		return ValidationError("jobId", "job is required")
	}
	if p.ProviderID == uuid.Nil {
		return ValidationError("providerId", "provider is required")
	}
	if p.ClientID == uuid.Nil {
		return ValidationError("clientId", "client is required")
	}
	if err := p.Ratings.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Comment) == "" {
		return ValidationError("comment", "comment is required")
	}
	return nil
}

// NewReview builds a review with its composite rating.
func NewReview(p NewReviewParams, now time.Time) (Review, error) {
	if err := p.Validate(); err != nil {
		return Review{}, err
	}
	return Review{
		ID:                    uuid.New(),
		JobID:                 p.JobID,
		ProviderID:            p.ProviderID,
		ClientID:              p.ClientID,
		QualityRating:         p.Ratings.Quality,
		TimelinessRating:      p.Ratings.Timeliness,
		ProfessionalismRating: p.Ratings.Professionalism,
		Rating:                p.Ratings.Composite(),
		Comment:               strings.TrimSpace(p.Comment),
		ReviewDate:            now,
	}, nil
}
