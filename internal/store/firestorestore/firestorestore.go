// Package firestorestore implements the store gateway on Cloud Firestore.
//
// Firestore transactions must read every document before writing any, and
// the client library retries aborted transactions itself. Uniqueness that
// Firestore cannot index, one review per (job, client), is held by guard
// documents created inside the same transaction as the review.
package firestorestore

import (
	"context"
	"errors"
	"fmt"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store is the Firestore gateway.
type Store struct {
	client *firestore.Client
}

// New creates a gateway over client.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// RunTransaction runs fn in a Firestore transaction.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		return fn(ctx, &txView{client: s.client, tx: t})
	})
	return mapError(err)
}

func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	snap, err := s.client.Collection(store.CollectionJobs).Doc(id.String()).Get(ctx)
	if err != nil {
		return domain.Job{}, mapError(fmt.Errorf("get job: %w", err))
	}
	return decodeJob(snap)
}

func (s *Store) GetQuote(ctx context.Context, id uuid.UUID) (domain.Quote, error) {
	snap, err := s.client.Collection(store.CollectionQuotes).Doc(id.String()).Get(ctx)
	if err != nil {
		return domain.Quote{}, mapError(fmt.Errorf("get quote: %w", err))
	}
	return decodeQuote(snap)
}

func (s *Store) GetProviderProfile(ctx context.Context, providerID uuid.UUID) (domain.ProviderProfile, error) {
	snap, err := s.client.Collection(store.CollectionProviderProfiles).Doc(providerID.String()).Get(ctx)
	if err != nil {
		return domain.ProviderProfile{}, mapError(fmt.Errorf("get provider profile: %w", err))
	}
	return decodeProfile(snap)
}

func (s *Store) FindReview(ctx context.Context, jobID, clientID uuid.UUID) (domain.Review, error) {
	guard, err := s.client.Collection(collectionReviewGuards).Doc(reviewGuardID(jobID, clientID)).Get(ctx)
	if err != nil {
		return domain.Review{}, mapError(fmt.Errorf("get review guard: %w", err))
	}
	var g reviewGuard
	if err := guard.DataTo(&g); err != nil {
		return domain.Review{}, fmt.Errorf("decode review guard: %w", err)
	}
	snap, err := s.client.Collection(store.CollectionReviews).Doc(g.ReviewID).Get(ctx)
	if err != nil {
		return domain.Review{}, mapError(fmt.Errorf("get review: %w", err))
	}
	return decodeReview(snap)
}

// Single writes outside a caller's transaction run in their own.

func (s *Store) CreateJob(ctx context.Context, job domain.Job) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error { return tx.CreateJob(ctx, job) })
}

func (s *Store) UpdateJob(ctx context.Context, job domain.Job) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error { return tx.UpdateJob(ctx, job) })
}

func (s *Store) CreateQuote(ctx context.Context, quote domain.Quote) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error { return tx.CreateQuote(ctx, quote) })
}

func (s *Store) UpdateQuote(ctx context.Context, quote domain.Quote) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error { return tx.UpdateQuote(ctx, quote) })
}

func (s *Store) IncrementQuotesReceived(ctx context.Context, jobID uuid.UUID) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error { return tx.IncrementQuotesReceived(ctx, jobID) })
}

func (s *Store) CreateReview(ctx context.Context, review domain.Review) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error { return tx.CreateReview(ctx, review) })
}

func (s *Store) SetProviderAggregate(ctx context.Context, providerID uuid.UUID, agg domain.ProviderAggregate) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.SetProviderAggregate(ctx, providerID, agg)
	})
}

func (s *Store) CreateProviderProfile(ctx context.Context, p domain.ProviderProfile) error {
	_, err := s.client.Collection(store.CollectionProviderProfiles).Doc(p.ProviderID.String()).Create(ctx, toProfileDoc(p))
	if err != nil {
		return mapError(fmt.Errorf("create provider profile: %w", err))
	}
	return nil
}

func (s *Store) ListJobsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Job, error) {
	q := s.client.Collection(store.CollectionJobs).
		Where("clientId", "==", clientID.String()).
		OrderBy("postedAt", firestore.Desc)
	return list(ctx, q, decodeJob)
}

func (s *Store) ListQuotesByJob(ctx context.Context, jobID uuid.UUID) ([]domain.Quote, error) {
	q := s.client.Collection(store.CollectionQuotes).
		Where("jobId", "==", jobID.String()).
		OrderBy("createdAt", firestore.Asc)
	return list(ctx, q, decodeQuote)
}

func (s *Store) ListReviewsByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Review, error) {
	q := s.client.Collection(store.CollectionReviews).
		Where("providerId", "==", providerID.String()).
		OrderBy("reviewDate", firestore.Desc)
	return list(ctx, q, decodeReview)
}

func list[T any](ctx context.Context, q firestore.Query, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError(fmt.Errorf("query: %w", err))
		}
		item, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// mapError translates gRPC status codes, wrapped or not, into store
// sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	case codes.Aborted:
		return fmt.Errorf("%w: %w", store.ErrConflict, err)
	}
	return err
}

var _ store.Gateway = (*Store)(nil)
