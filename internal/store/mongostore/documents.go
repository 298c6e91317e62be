package mongostore

import (
	"time"

	"kazi_backend/internal/domain"

	"github.com/google/uuid"
)

// Identifiers are stored as canonical UUID strings.

type jobDoc struct {
	ID                 string    `bson:"_id"`
	ClientID           string    `bson:"clientId"`
	Title              string    `bson:"title"`
	Description        string    `bson:"description"`
	Category           string    `bson:"category"`
	Location           string    `bson:"location"`
	BudgetCents        *int64    `bson:"budgetCents"`
	Currency           string    `bson:"currency"`
	Status             string    `bson:"status"`
	AssignedProviderID *string   `bson:"assignedProviderId"`
	QuotesReceived     int       `bson:"quotesReceived"`
	AcceptedQuoteID    *string   `bson:"acceptedQuoteId"`
	PostedAt           time.Time `bson:"postedAt"`
	UpdatedAt          time.Time `bson:"updatedAt"`
}

type quoteDoc struct {
	ID          string    `bson:"_id"`
	JobID       string    `bson:"jobId"`
	ProviderID  string    `bson:"providerId"`
	ClientID    string    `bson:"clientId"`
	AmountCents int64     `bson:"amountCents"`
	Currency    string    `bson:"currency"`
	Message     string    `bson:"message"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

type reviewDoc struct {
	ID                    string    `bson:"_id"`
	JobID                 string    `bson:"jobId"`
	ProviderID            string    `bson:"providerId"`
	ClientID              string    `bson:"clientId"`
	QualityRating         int       `bson:"qualityRating"`
	TimelinessRating      int       `bson:"timelinessRating"`
	ProfessionalismRating int       `bson:"professionalismRating"`
	Rating                float64   `bson:"rating"`
	Comment               string    `bson:"comment"`
	ReviewDate            time.Time `bson:"reviewDate"`
}

type profileDoc struct {
	ProviderID   string    `bson:"_id"`
	DisplayName  string    `bson:"displayName"`
	Email        string    `bson:"email"`
	Rating       float64   `bson:"rating"`
	ReviewsCount int       `bson:"reviewsCount"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toJobDoc(j domain.Job) jobDoc {
	return jobDoc{
		ID:                 j.ID.String(),
		ClientID:           j.ClientID.String(),
		Title:              j.Title,
		Description:        j.Description,
		Category:           j.Category,
		Location:           j.Location,
		BudgetCents:        j.BudgetCents,
		Currency:           j.Currency,
		Status:             string(j.Status),
		AssignedProviderID: idPtrString(j.AssignedProviderID),
		QuotesReceived:     j.QuotesReceived,
		AcceptedQuoteID:    idPtrString(j.AcceptedQuoteID),
		PostedAt:           j.PostedAt,
		UpdatedAt:          j.UpdatedAt,
	}
}

func (d jobDoc) toDomain() domain.Job {
	return domain.Job{
		ID:                 uuid.MustParse(d.ID),
		ClientID:           uuid.MustParse(d.ClientID),
		Title:              d.Title,
		Description:        d.Description,
		Category:           d.Category,
		Location:           d.Location,
		BudgetCents:        d.BudgetCents,
		Currency:           d.Currency,
		Status:             domain.JobStatus(d.Status),
		AssignedProviderID: parseIDPtr(d.AssignedProviderID),
		QuotesReceived:     d.QuotesReceived,
		AcceptedQuoteID:    parseIDPtr(d.AcceptedQuoteID),
		PostedAt:           d.PostedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}
}

func toQuoteDoc(q domain.Quote) quoteDoc {
	return quoteDoc{
		ID:          q.ID.String(),
		JobID:       q.JobID.String(),
		ProviderID:  q.ProviderID.String(),
		ClientID:    q.ClientID.String(),
		AmountCents: q.AmountCents,
		Currency:    q.Currency,
		Message:     q.Message,
		Status:      string(q.Status),
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (d quoteDoc) toDomain() domain.Quote {
	return domain.Quote{
		ID:          uuid.MustParse(d.ID),
		JobID:       uuid.MustParse(d.JobID),
		ProviderID:  uuid.MustParse(d.ProviderID),
		ClientID:    uuid.MustParse(d.ClientID),
		AmountCents: d.AmountCents,
		Currency:    d.Currency,
		Message:     d.Message,
		Status:      domain.QuoteStatus(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func toReviewDoc(r domain.Review) reviewDoc {
	return reviewDoc{
		ID:                    r.ID.String(),
		JobID:                 r.JobID.String(),
		ProviderID:            r.ProviderID.String(),
		ClientID:              r.ClientID.String(),
		QualityRating:         r.QualityRating,
		TimelinessRating:      r.TimelinessRating,
		ProfessionalismRating: r.ProfessionalismRating,
		Rating:                r.Rating,
		Comment:               r.Comment,
		ReviewDate:            r.ReviewDate,
	}
}

func (d reviewDoc) toDomain() domain.Review {
	return domain.Review{
		ID:                    uuid.MustParse(d.ID),
		JobID:                 uuid.MustParse(d.JobID),
		ProviderID:            uuid.MustParse(d.ProviderID),
		ClientID:              uuid.MustParse(d.ClientID),
		QualityRating:         d.QualityRating,
		TimelinessRating:      d.TimelinessRating,
		ProfessionalismRating: d.ProfessionalismRating,
		Rating:                d.Rating,
		Comment:               d.Comment,
		ReviewDate:            d.ReviewDate.UTC(),
	}
}

func toProfileDoc(p domain.ProviderProfile) profileDoc {
	return profileDoc{
		ProviderID:   p.ProviderID.String(),
		DisplayName:  p.DisplayName,
		Email:        p.Email,
		Rating:       p.Rating,
		ReviewsCount: p.ReviewsCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (d profileDoc) toDomain() domain.ProviderProfile {
	return domain.ProviderProfile{
		ProviderID:  uuid.MustParse(d.ProviderID),
		DisplayName: d.DisplayName,
		Email:       d.Email,
		ProviderAggregate: domain.ProviderAggregate{
			Rating:       d.Rating,
			ReviewsCount: d.ReviewsCount,
		},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func idPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseIDPtr(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}
