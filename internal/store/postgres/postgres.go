// Package postgres implements the store gateway on PostgreSQL. Every
// transaction runs at SERIALIZABLE; serialization failures and deadlocks
// surface as store.ErrConflict and are retried by the caller, never here.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL gateway.
type Store struct {
	pool *pgxpool.Pool
	conn
}

// New creates a gateway over pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, conn: conn{q: pool}}
}

// RunTransaction runs fn inside one SERIALIZABLE transaction.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return mapError(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, conn{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (s *Store) CreateProviderProfile(ctx context.Context, p domain.ProviderProfile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO provider_profiles (provider_id, display_name, email, rating, reviews_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ProviderID, p.DisplayName, p.Email, p.Rating, p.ReviewsCount, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError(fmt.Errorf("insert provider profile: %w", err))
	}
	return nil
}

func (s *Store) ListJobsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE client_id = $1 ORDER BY posted_at DESC`, clientID)
	if err != nil {
		return nil, mapError(fmt.Errorf("list jobs: %w", err))
	}
	return collect(rows, scanJob)
}

func (s *Store) ListQuotesByJob(ctx context.Context, jobID uuid.UUID) ([]domain.Quote, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE job_id = $1 ORDER BY created_at`, jobID)
	if err != nil {
		return nil, mapError(fmt.Errorf("list quotes: %w", err))
	}
	return collect(rows, scanQuote)
}

func (s *Store) ListReviewsByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Review, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE provider_id = $1 ORDER BY review_date DESC`, providerID)
	if err != nil {
		return nil, mapError(fmt.Errorf("list reviews: %w", err))
	}
	return collect(rows, scanReview)
}

// mapError translates driver errors into store sentinels, keeping the
// original error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %w", store.ErrConflict, err)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %w", store.ErrNotFound, err)
		}
	}
	return err
}

var _ store.Gateway = (*Store)(nil)
