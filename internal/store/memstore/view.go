package memstore

import (
	"context"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
)

// view applies reads and writes to one state snapshot.
type view struct {
	st *state
}

func (v *view) GetJob(_ context.Context, id uuid.UUID) (domain.Job, error) {
	job, ok := v.st.jobs[id]
	if !ok {
		return domain.Job{}, store.ErrNotFound
	}
	return copyJob(job), nil
}

func (v *view) GetQuote(_ context.Context, id uuid.UUID) (domain.Quote, error) {
	q, ok := v.st.quotes[id]
	if !ok {
		return domain.Quote{}, store.ErrNotFound
	}
	return q, nil
}

func (v *view) GetProviderProfile(_ context.Context, providerID uuid.UUID) (domain.ProviderProfile, error) {
	p, ok := v.st.profiles[providerID]
	if !ok {
		return domain.ProviderProfile{}, store.ErrNotFound
	}
	return p, nil
}

func (v *view) FindReview(_ context.Context, jobID, clientID uuid.UUID) (domain.Review, error) {
	for _, r := range v.st.reviews {
		if r.JobID == jobID && r.ClientID == clientID {
			return r, nil
		}
	}
	return domain.Review{}, store.ErrNotFound
}

func (v *view) CreateJob(_ context.Context, job domain.Job) error {
	if _, ok := v.st.jobs[job.ID]; ok {
		return store.ErrDuplicate
	}
	v.st.jobs[job.ID] = copyJob(job)
	return nil
}

func (v *view) UpdateJob(_ context.Context, job domain.Job) error {
	current, ok := v.st.jobs[job.ID]
	if !ok {
		return store.ErrNotFound
	}
	next := copyJob(job)
	next.QuotesReceived = current.QuotesReceived
	next.ClientID = current.ClientID
	next.PostedAt = current.PostedAt
	v.st.jobs[job.ID] = next
	return nil
}

func (v *view) CreateQuote(_ context.Context, quote domain.Quote) error {
	if _, ok := v.st.quotes[quote.ID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := v.st.jobs[quote.JobID]; !ok {
		return store.ErrNotFound
	}
	v.st.quotes[quote.ID] = quote
	return nil
}

func (v *view) UpdateQuote(_ context.Context, quote domain.Quote) error {
	current, ok := v.st.quotes[quote.ID]
	if !ok {
		return store.ErrNotFound
	}
	if quote.Status == domain.QuoteAccepted {
		for id, other := range v.st.quotes {
			if id != quote.ID && other.JobID == current.JobID && other.Status == domain.QuoteAccepted {
				return store.ErrDuplicate
			}
		}
	}
	// Identity and ownership never change after creation.
	quote.JobID = current.JobID
	quote.ClientID = current.ClientID
	quote.ProviderID = current.ProviderID
	quote.CreatedAt = current.CreatedAt
	v.st.quotes[quote.ID] = quote
	return nil
}

func (v *view) IncrementQuotesReceived(_ context.Context, jobID uuid.UUID) error {
	job, ok := v.st.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	job.QuotesReceived++
	v.st.jobs[jobID] = job
	return nil
}

func (v *view) CreateReview(_ context.Context, review domain.Review) error {
	if _, ok := v.st.reviews[review.ID]; ok {
		return store.ErrDuplicate
	}
	for _, r := range v.st.reviews {
		if r.JobID == review.JobID && r.ClientID == review.ClientID {
			return store.ErrDuplicate
		}
	}
	v.st.reviews[review.ID] = review
	return nil
}

func (v *view) SetProviderAggregate(_ context.Context, providerID uuid.UUID, agg domain.ProviderAggregate) error {
	p, ok := v.st.profiles[providerID]
	if !ok {
		return store.ErrNotFound
	}
	p.ProviderAggregate = agg
	v.st.profiles[providerID] = p
	return nil
}

func copyJob(j domain.Job) domain.Job {
	if j.AssignedProviderID != nil {
		id := *j.AssignedProviderID
		j.AssignedProviderID = &id
	}
	if j.AcceptedQuoteID != nil {
		id := *j.AcceptedQuoteID
		j.AcceptedQuoteID = &id
	}
	if j.BudgetCents != nil {
		b := *j.BudgetCents
		j.BudgetCents = &b
	}
	return j
}
