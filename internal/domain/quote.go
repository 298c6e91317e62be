package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the lifecycle state of a quote. Every status other than
// pending is terminal.
type QuoteStatus string

const (
	QuotePending  QuoteStatus = "pending"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
)

// Quote is a provider's priced response to a job.
//
// ClientID is copied from the owning job when the quote is created and is
// what authorizes accept and reject; it is never taken from caller input.
type Quote struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	ProviderID  uuid.UUID
	ClientID    uuid.UUID
	AmountCents int64
	Currency    string
	Message     string
	Status      QuoteStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewQuoteParams carries the provider-supplied fields of a quote.
type NewQuoteParams struct {
	ProviderID  uuid.UUID
	AmountCents int64
	Currency    string
	Message     string
}

// NewQuote builds a pending quote against job.
func NewQuote(job Job, p NewQuoteParams, now time.Time) (Quote, error) {
	if p.ProviderID == uuid.Nil {
		return Quote{}, ValidationError("providerId", "provider is required")
	}
	if p.ProviderID == job.ClientID {
		return Quote{}, ValidationError("providerId", "a client cannot quote on their own job")
	}
	if p.AmountCents <= 0 {
		return Quote{}, ValidationError("amountCents", "amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if !validCurrency(currency) {
		return Quote{}, ValidationError("currency", "currency must be a 3-letter ISO code")
	}

	return Quote{
		ID:          uuid.New(),
		JobID:       job.ID,
		ProviderID:  p.ProviderID,
		ClientID:    job.ClientID,
		AmountCents: p.AmountCents,
		Currency:    currency,
		Message:     strings.TrimSpace(p.Message),
		Status:      QuotePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Accept marks a pending quote accepted.
func (q *Quote) Accept(now time.Time) error {
	return q.settle(QuoteAccepted, now)
}

// Reject marks a pending quote rejected.
func (q *Quote) Reject(now time.Time) error {
	return q.settle(QuoteRejected, now)
}

func (q *Quote) settle(to QuoteStatus, now time.Time) error {
	if q.Status != QuotePending {
		return ErrQuoteNotPending.WithDetails(map[string]string{"status": string(q.Status)})
	}
	q.Status = to
	q.UpdatedAt = now
	return nil
}
