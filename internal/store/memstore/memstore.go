// Package memstore is an in-memory store.Gateway. Transactions are
// serialized by a single mutex and staged on a copy of the data, so they
// are atomic and isolated. Uniqueness rules match the SQL schema.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
)

type state struct {
	jobs     map[uuid.UUID]domain.Job
	quotes   map[uuid.UUID]domain.Quote
	reviews  map[uuid.UUID]domain.Review
	profiles map[uuid.UUID]domain.ProviderProfile
}

func newState() *state {
	return &state{
		jobs:     make(map[uuid.UUID]domain.Job),
		quotes:   make(map[uuid.UUID]domain.Quote),
		reviews:  make(map[uuid.UUID]domain.Review),
		profiles: make(map[uuid.UUID]domain.ProviderProfile),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	for k, v := range s.quotes {
		c.quotes[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return c
}

// Store is the in-memory gateway.
type Store struct {
	mu        sync.Mutex
	data      *state
	conflicts int
	txCount   int
}

// New returns an empty store.
func New() *Store {
	return &Store{data: newState()}
}

// InjectConflicts makes the next n transactions abort with store.ErrConflict
// after fn has run, discarding their writes.
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

// Transactions reports how many transactions have been started.
func (s *Store) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

// RunTransaction runs fn against a private copy of the data and publishes
// the copy only when fn succeeds. fn must not call back into s outside tx.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txCount++
	staged := s.data.clone()
	if err := fn(ctx, &view{st: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.conflicts > 0 {
		s.conflicts--
		return fmt.Errorf("memstore: commit: %w", store.ErrConflict)
	}
	s.data = staged
	return nil
}

func (s *Store) do(fn func(v *view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&view{st: s.data})
}

func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (job domain.Job, err error) {
	err = s.do(func(v *view) error {
		job, err = v.GetJob(ctx, id)
		return err
	})
	return job, err
}

func (s *Store) GetQuote(ctx context.Context, id uuid.UUID) (quote domain.Quote, err error) {
	err = s.do(func(v *view) error {
		quote, err = v.GetQuote(ctx, id)
		return err
	})
	return quote, err
}

func (s *Store) GetProviderProfile(ctx context.Context, providerID uuid.UUID) (p domain.ProviderProfile, err error) {
	err = s.do(func(v *view) error {
		p, err = v.GetProviderProfile(ctx, providerID)
		return err
	})
	return p, err
}

func (s *Store) FindReview(ctx context.Context, jobID, clientID uuid.UUID) (r domain.Review, err error) {
	err = s.do(func(v *view) error {
		r, err = v.FindReview(ctx, jobID, clientID)
		return err
	})
	return r, err
}

func (s *Store) CreateJob(ctx context.Context, job domain.Job) error {
	return s.do(func(v *view) error { return v.CreateJob(ctx, job) })
}

func (s *Store) UpdateJob(ctx context.Context, job domain.Job) error {
	return s.do(func(v *view) error { return v.UpdateJob(ctx, job) })
}

func (s *Store) CreateQuote(ctx context.Context, quote domain.Quote) error {
	return s.do(func(v *view) error { return v.CreateQuote(ctx, quote) })
}

func (s *Store) UpdateQuote(ctx context.Context, quote domain.Quote) error {
	return s.do(func(v *view) error { return v.UpdateQuote(ctx, quote) })
}

func (s *Store) IncrementQuotesReceived(ctx context.Context, jobID uuid.UUID) error {
	return s.do(func(v *view) error { return v.IncrementQuotesReceived(ctx, jobID) })
}

func (s *Store) CreateReview(ctx context.Context, review domain.Review) error {
	return s.do(func(v *view) error { return v.CreateReview(ctx, review) })
}

func (s *Store) SetProviderAggregate(ctx context.Context, providerID uuid.UUID, agg domain.ProviderAggregate) error {
	return s.do(func(v *view) error { return v.SetProviderAggregate(ctx, providerID, agg) })
}

func (s *Store) CreateProviderProfile(_ context.Context, profile domain.ProviderProfile) error {
	return s.do(func(v *view) error {
		if _, ok := v.st.profiles[profile.ProviderID]; ok {
			return store.ErrDuplicate
		}
		v.st.profiles[profile.ProviderID] = profile
		return nil
	})
}

func (s *Store) ListJobsByClient(_ context.Context, clientID uuid.UUID) ([]domain.Job, error) {
	var out []domain.Job
	_ = s.do(func(v *view) error {
		for _, j := range v.st.jobs {
			if j.ClientID == clientID {
				out = append(out, j)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, k int) bool { return out[i].PostedAt.After(out[k].PostedAt) })
	return out, nil
}

func (s *Store) ListQuotesByJob(_ context.Context, jobID uuid.UUID) ([]domain.Quote, error) {
	var out []domain.Quote
	_ = s.do(func(v *view) error {
		for _, q := range v.st.quotes {
			if q.JobID == jobID {
				out = append(out, q)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (s *Store) ListReviewsByProvider(_ context.Context, providerID uuid.UUID) ([]domain.Review, error) {
	var out []domain.Review
	_ = s.do(func(v *view) error {
		for _, r := range v.st.reviews {
			if r.ProviderID == providerID {
				out = append(out, r)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, k int) bool { return out[i].ReviewDate.After(out[k].ReviewDate) })
	return out, nil
}

var _ store.Gateway = (*Store)(nil)
