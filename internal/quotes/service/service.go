// Package service implements the quote lifecycle manager: submission,
// acceptance and rejection of quotes, and the rule that a job accepts at
// most one quote.
package service

import (
	"context"
	"errors"
	"time"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"
	"kazi_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	opSubmit = "quotes.service.submit"
	opAccept = "quotes.service.accept"
	opReject = "quotes.service.reject"
	opGet    = "quotes.service.get"
	opList   = "quotes.service.list_for_job"
)

// Service provides business logic for quotes.
type Service struct {
	store store.Gateway
	now   func() time.Time
}

// New creates a new quotes service.
func New(gw store.Gateway) *Service {
	return &Service{store: gw, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SubmitParams carries a provider's quote. ClientID is optional; when set it
// must match the job's owner. The stored quote always takes its client from
// the job.
type SubmitParams struct {
	JobID       uuid.UUID
	ProviderID  uuid.UUID
	ClientID    uuid.UUID
	AmountCents int64
	Currency    string
	Message     string
}

// SubmitResult is a created quote and the job it was submitted against.
type SubmitResult struct {
	Quote domain.Quote
	Job   domain.Job
}

// Submit creates a pending quote and increments the job's quote counter in
// one transaction. An open job moves to pending_quotes.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (SubmitResult, error) {
	job, err := s.store.GetJob(ctx, p.JobID)
	if err != nil {
		return SubmitResult{}, store.MapError(err, domain.ErrJobNotFound, opSubmit)
	}
	if p.ClientID != uuid.Nil && p.ClientID != job.ClientID {
		return SubmitResult{}, domain.ErrClientMismatch.WithOp(opSubmit)
	}
	if !job.TakesQuotes() {
		return SubmitResult{}, domain.ErrJobNotAcceptingQuotes.WithOp(opSubmit)
	}

	quote, err := domain.NewQuote(job, domain.NewQuoteParams{
		ProviderID:  p.ProviderID,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Message:     p.Message,
	}, s.now().UTC())
	if err != nil {
		return SubmitResult{}, err
	}

	var result SubmitResult
	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		job, err := tx.GetJob(ctx, p.JobID)
		if err != nil {
			return err
		}
		if !job.TakesQuotes() {
			return domain.ErrJobNotAcceptingQuotes
		}

		q := quote
		q.ClientID = job.ClientID
		if err := tx.CreateQuote(ctx, q); err != nil {
			return err
		}
		if err := tx.IncrementQuotesReceived(ctx, job.ID); err != nil {
			return err
		}
		if job.NoteQuoteReceived(q.CreatedAt) {
			if err := tx.UpdateJob(ctx, job); err != nil {
				return err
			}
		}
		job.QuotesReceived++
		result = SubmitResult{Quote: q, Job: job}
		return nil
	})
	if err != nil {
		return SubmitResult{}, store.MapError(err, domain.ErrJobNotFound, opSubmit)
	}
	return result, nil
}

// AcceptResult is the accepted quote and the job it assigned.
type AcceptResult struct {
	Quote domain.Quote
	Job   domain.Job
}

// Accept marks a pending quote accepted and assigns its job to the quote's
// provider. Both writes commit together or not at all. Every precondition
// is checked once up front to fail fast and again inside the transaction
// against the stored documents.
func (s *Service) Accept(ctx context.Context, jobID, quoteID, actingClientID uuid.UUID) (AcceptResult, error) {
	quote, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return AcceptResult{}, store.MapError(err, domain.ErrQuoteNotFound, opAccept)
	}
	if err := checkSettle(quote, jobID, actingClientID); err != nil {
		return AcceptResult{}, err.WithOp(opAccept)
	}

	var result AcceptResult
	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		q, err := tx.GetQuote(ctx, quoteID)
		if err != nil {
			return mapMissing(err, domain.ErrQuoteNotFound)
		}
		if err := checkSettle(q, jobID, actingClientID); err != nil {
			return err
		}
		job, err := tx.GetJob(ctx, q.JobID)
		if err != nil {
			return mapMissing(err, domain.ErrJobNotFound)
		}
		if job.ClientID != actingClientID {
			return domain.ErrUnauthorized
		}

		now := s.now().UTC()
		if err := job.AcceptQuote(q, now); err != nil {
			return err
		}
		if err := q.Accept(now); err != nil {
			return err
		}
		if err := tx.UpdateQuote(ctx, q); err != nil {
			return err
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}
		result = AcceptResult{Quote: q, Job: job}
		return nil
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Another quote on the job won the race and the unique index caught it.
		return AcceptResult{}, domain.ErrJobNotAcceptingQuotes.WithOp(opAccept)
	}
	if err != nil {
		return AcceptResult{}, store.MapError(err, domain.ErrQuoteNotFound, opAccept)
	}
	return result, nil
}

// Reject marks a pending quote rejected. Only the job's owner may reject.
func (s *Service) Reject(ctx context.Context, quoteID, actingClientID uuid.UUID) (domain.Quote, error) {
	quote, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return domain.Quote{}, store.MapError(err, domain.ErrQuoteNotFound, opReject)
	}
	if err := checkSettle(quote, quote.JobID, actingClientID); err != nil {
		return domain.Quote{}, err.WithOp(opReject)
	}

	var rejected domain.Quote
	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		q, err := tx.GetQuote(ctx, quoteID)
		if err != nil {
			return mapMissing(err, domain.ErrQuoteNotFound)
		}
		if err := checkSettle(q, q.JobID, actingClientID); err != nil {
			return err
		}
		if err := q.Reject(s.now().UTC()); err != nil {
			return err
		}
		if err := tx.UpdateQuote(ctx, q); err != nil {
			return err
		}
		rejected = q
		return nil
	})
	if err != nil {
		return domain.Quote{}, store.MapError(err, domain.ErrQuoteNotFound, opReject)
	}
	return rejected, nil
}

// Get returns a quote by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Quote, error) {
	q, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return domain.Quote{}, store.MapError(err, domain.ErrQuoteNotFound, opGet)
	}
	return q, nil
}

// ListForJob returns the quotes on a job visible to viewerID: every quote
// for the job's owner, only their own for anyone else.
func (s *Service) ListForJob(ctx context.Context, jobID, viewerID uuid.UUID) ([]domain.Quote, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, store.MapError(err, domain.ErrJobNotFound, opList)
	}
	quotes, err := s.store.ListQuotesByJob(ctx, jobID)
	if err != nil {
		return nil, store.MapError(err, nil, opList)
	}
	if job.ClientID == viewerID {
		return quotes, nil
	}
	visible := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.ProviderID == viewerID {
			visible = append(visible, q)
		}
	}
	return visible, nil
}

// checkSettle verifies a quote may be accepted or rejected by actingClientID.
// Ownership is checked before status so non-owners learn nothing about the
// quote's state.
func checkSettle(q domain.Quote, jobID, actingClientID uuid.UUID) *apperr.Error {
	switch {
	case q.JobID != jobID:
		return domain.ErrQuoteJobMismatch
	case q.ClientID != actingClientID:
		return domain.ErrUnauthorized
	case q.Status != domain.QuotePending:
		return domain.ErrQuoteNotPending
	}
	return nil
}

func mapMissing(err error, notFound *apperr.Error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return err
}
