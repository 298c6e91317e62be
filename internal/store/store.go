// Package store defines the document-store gateway the lifecycle engine runs
// on: per-document reads and writes over the jobs, quotes, reviews and
// providerProfiles collections plus atomic multi-document transactions.
package store

import (
	"context"
	"errors"

	"kazi_backend/internal/domain"

	"github.com/google/uuid"
)

// Collection names shared by the document-store implementations.
const (
	CollectionJobs             = "jobs"
	CollectionQuotes           = "quotes"
	CollectionReviews          = "reviews"
	CollectionProviderProfiles = "providerProfiles"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("store: document not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("store: duplicate document")
	// ErrConflict is returned when a transaction aborted because of
	// concurrent writers. The whole operation may be retried.
	ErrConflict = errors.New("store: transaction conflict")
)

// Reader is the read half of a transaction or a gateway.
type Reader interface {
	GetJob(ctx context.Context, id uuid.UUID) (domain.Job, error)
	GetQuote(ctx context.Context, id uuid.UUID) (domain.Quote, error)
	GetProviderProfile(ctx context.Context, providerID uuid.UUID) (domain.ProviderProfile, error)
	// FindReview returns ErrNotFound when the pair has no review.
	FindReview(ctx context.Context, jobID, clientID uuid.UUID) (domain.Review, error)
}

// Writer is the write half of a transaction or a gateway.
type Writer interface {
	CreateJob(ctx context.Context, job domain.Job) error
	// UpdateJob replaces the mutable lifecycle fields of a job. It never
	// touches QuotesReceived, which only IncrementQuotesReceived changes.
	UpdateJob(ctx context.Context, job domain.Job) error
	CreateQuote(ctx context.Context, quote domain.Quote) error
	UpdateQuote(ctx context.Context, quote domain.Quote) error
	// IncrementQuotesReceived atomically adds one to the job's counter.
	IncrementQuotesReceived(ctx context.Context, jobID uuid.UUID) error
	CreateReview(ctx context.Context, review domain.Review) error
	SetProviderAggregate(ctx context.Context, providerID uuid.UUID, agg domain.ProviderAggregate) error
}

// Tx is the view of the store inside RunTransaction. Reads are snapshot
// reads; writes become visible atomically when fn returns nil.
type Tx interface {
	Reader
	Writer
}

// Gateway is a document store with transactions.
type Gateway interface {
	Tx

	// RunTransaction runs fn atomically. If fn returns an error nothing it
	// wrote is committed and the error is returned unchanged. Contention is
	// reported as an error wrapping ErrConflict; implementations may retry
	// fn internally before giving up.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	CreateProviderProfile(ctx context.Context, profile domain.ProviderProfile) error
	ListJobsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Job, error)
	ListQuotesByJob(ctx context.Context, jobID uuid.UUID) ([]domain.Quote, error)
	ListReviewsByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Review, error)
}
