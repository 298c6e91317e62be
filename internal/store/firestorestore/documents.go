package firestorestore

import (
	"time"

	"kazi_backend/internal/domain"

	"github.com/google/uuid"
)

const collectionReviewGuards = "reviewGuards"

type jobDoc struct {
	ClientID           string    `firestore:"clientId"`
	Title              string    `firestore:"title"`
	Description        string    `firestore:"description"`
	Category           string    `firestore:"category"`
	Location           string    `firestore:"location"`
	BudgetCents        *int64    `firestore:"budgetCents"`
	Currency           string    `firestore:"currency"`
	Status             string    `firestore:"status"`
	AssignedProviderID *string   `firestore:"assignedProviderId"`
	QuotesReceived     int       `firestore:"quotesReceived"`
	AcceptedQuoteID    *string   `firestore:"acceptedQuoteId"`
	PostedAt           time.Time `firestore:"postedAt"`
	UpdatedAt          time.Time `firestore:"updatedAt"`
}

type quoteDoc struct {
	JobID       string    `firestore:"jobId"`
	ProviderID  string    `firestore:"providerId"`
	ClientID    string    `firestore:"clientId"`
	AmountCents int64     `firestore:"amountCents"`
	Currency    string    `firestore:"currency"`
	Message     string    `firestore:"message"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

type reviewDoc struct {
	JobID                 string    `firestore:"jobId"`
	ProviderID            string    `firestore:"providerId"`
	ClientID              string    `firestore:"clientId"`
	QualityRating         int       `firestore:"qualityRating"`
	TimelinessRating      int       `firestore:"timelinessRating"`
	ProfessionalismRating int       `firestore:"professionalismRating"`
	Rating                float64   `firestore:"rating"`
	Comment               string    `firestore:"comment"`
	ReviewDate            time.Time `firestore:"reviewDate"`
}

type profileDoc struct {
	DisplayName  string    `firestore:"displayName"`
	Email        string    `firestore:"email"`
	Rating       float64   `firestore:"rating"`
	ReviewsCount int       `firestore:"reviewsCount"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// reviewGuard exists once per (job, client) pair. Creating it in the same
// transaction as the review makes a second review for the pair fail.
type reviewGuard struct {
	ReviewID string `firestore:"reviewId"`
}

func reviewGuardID(jobID, clientID uuid.UUID) string {
	return jobID.String() + "_" + clientID.String()
}

func toJobDoc(j domain.Job) jobDoc {
	return jobDoc{
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

func (d jobDoc) toDomain(id string) domain.Job {
	return domain.Job{
		ID:                 uuid.MustParse(id),
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

func (d quoteDoc) toDomain(id string) domain.Quote {
	return domain.Quote{
		ID:          uuid.MustParse(id),
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

func (d reviewDoc) toDomain(id string) domain.Review {
	return domain.Review{
		ID:                    uuid.MustParse(id),
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
		DisplayName:  p.DisplayName,
		Email:        p.Email,
		Rating:       p.Rating,
		ReviewsCount: p.ReviewsCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (d profileDoc) toDomain(id string) domain.ProviderProfile {
	return domain.ProviderProfile{
		ProviderID:  uuid.MustParse(id),
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
