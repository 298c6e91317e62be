package postgres

import (
	"context"
	"fmt"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	jobColumns = `id, client_id, title, description, category, location, budget_cents, currency,
		status, assigned_provider_id, quotes_received, accepted_quote_id, posted_at, updated_at`
	quoteColumns = `id, job_id, provider_id, client_id, amount_cents, currency, message,
		status, created_at, updated_at`
	reviewColumns = `id, job_id, provider_id, client_id, quality_rating, timeliness_rating,
		professionalism_rating, rating, comment, review_date`
	profileColumns = `provider_id, display_name, email, rating, reviews_count, created_at, updated_at`
)

// conn implements store.Tx over a pool or an open transaction.
type conn struct {
	q querier
}

func (c conn) GetJob(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	job, err := scanJob(c.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return domain.Job{}, mapError(fmt.Errorf("get job: %w", err))
	}
	return job, nil
}

func (c conn) GetQuote(ctx context.Context, id uuid.UUID) (domain.Quote, error) {
	q, err := scanQuote(c.q.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		return domain.Quote{}, mapError(fmt.Errorf("get quote: %w", err))
	}
	return q, nil
}

func (c conn) GetProviderProfile(ctx context.Context, providerID uuid.UUID) (domain.ProviderProfile, error) {
	p, err := scanProfile(c.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM provider_profiles WHERE provider_id = $1`, providerID))
	if err != nil {
		return domain.ProviderProfile{}, mapError(fmt.Errorf("get provider profile: %w", err))
	}
	return p, nil
}

func (c conn) FindReview(ctx context.Context, jobID, clientID uuid.UUID) (domain.Review, error) {
	r, err := scanReview(c.q.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE job_id = $1 AND client_id = $2`, jobID, clientID))
	if err != nil {
		return domain.Review{}, mapError(fmt.Errorf("find review: %w", err))
	}
	return r, nil
}

func (c conn) CreateJob(ctx context.Context, j domain.Job) error {
	_, err := c.q.Exec(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		j.ID, j.ClientID, j.Title, j.Description, j.Category, j.Location, j.BudgetCents, j.Currency,
		string(j.Status), j.AssignedProviderID, j.QuotesReceived, j.AcceptedQuoteID, j.PostedAt, j.UpdatedAt,
	)
	if err != nil {
		return mapError(fmt.Errorf("insert job: %w", err))
	}
	return nil
}

func (c conn) UpdateJob(ctx context.Context, j domain.Job) error {
	tag, err := c.q.Exec(ctx, `
		UPDATE jobs SET
			title = $2, description = $3, category = $4, location = $5, budget_cents = $6, currency = $7,
			status = $8, assigned_provider_id = $9, accepted_quote_id = $10, updated_at = $11
		WHERE id = $1`,
		j.ID, j.Title, j.Description, j.Category, j.Location, j.BudgetCents, j.Currency,
		string(j.Status), j.AssignedProviderID, j.AcceptedQuoteID, j.UpdatedAt,
	)
	return affectedOne(tag.RowsAffected(), err, "update job")
}

func (c conn) CreateQuote(ctx context.Context, q domain.Quote) error {
	_, err := c.q.Exec(ctx, `
		INSERT INTO quotes (`+quoteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		q.ID, q.JobID, q.ProviderID, q.ClientID, q.AmountCents, q.Currency, q.Message,
		string(q.Status), q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return mapError(fmt.Errorf("insert quote: %w", err))
	}
	return nil
}

func (c conn) UpdateQuote(ctx context.Context, q domain.Quote) error {
	tag, err := c.q.Exec(ctx, `
		UPDATE quotes SET amount_cents = $2, currency = $3, message = $4, status = $5, updated_at = $6
		WHERE id = $1`,
		q.ID, q.AmountCents, q.Currency, q.Message, string(q.Status), q.UpdatedAt,
	)
	return affectedOne(tag.RowsAffected(), err, "update quote")
}

func (c conn) IncrementQuotesReceived(ctx context.Context, jobID uuid.UUID) error {
	tag, err := c.q.Exec(ctx, `UPDATE jobs SET quotes_received = quotes_received + 1 WHERE id = $1`, jobID)
	return affectedOne(tag.RowsAffected(), err, "increment quotes received")
}

func (c conn) CreateReview(ctx context.Context, r domain.Review) error {
	_, err := c.q.Exec(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.JobID, r.ProviderID, r.ClientID, r.QualityRating, r.TimelinessRating,
		r.ProfessionalismRating, r.Rating, r.Comment, r.ReviewDate,
	)
	if err != nil {
		return mapError(fmt.Errorf("insert review: %w", err))
	}
	return nil
}

func (c conn) SetProviderAggregate(ctx context.Context, providerID uuid.UUID, agg domain.ProviderAggregate) error {
	tag, err := c.q.Exec(ctx, `
		UPDATE provider_profiles SET rating = $2, reviews_count = $3, updated_at = now()
		WHERE provider_id = $1`,
		providerID, agg.Rating, agg.ReviewsCount,
	)
	return affectedOne(tag.RowsAffected(), err, "set provider aggregate")
}

func affectedOne(rows int64, err error, op string) error {
	if err != nil {
		return mapError(fmt.Errorf("%s: %w", op, err))
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return nil
}

func scanJob(row pgx.Row) (domain.Job, error) {
	var (
		j      domain.Job
		status string
	)
	err := row.Scan(
		&j.ID, &j.ClientID, &j.Title, &j.Description, &j.Category, &j.Location, &j.BudgetCents, &j.Currency,
		&status, &j.AssignedProviderID, &j.QuotesReceived, &j.AcceptedQuoteID, &j.PostedAt, &j.UpdatedAt,
	)
	j.Status = domain.JobStatus(status)
	return j, err
}

func scanQuote(row pgx.Row) (domain.Quote, error) {
	var (
		q      domain.Quote
		status string
	)
	err := row.Scan(
		&q.ID, &q.JobID, &q.ProviderID, &q.ClientID, &q.AmountCents, &q.Currency, &q.Message,
		&status, &q.CreatedAt, &q.UpdatedAt,
	)
	q.Status = domain.QuoteStatus(status)
	return q, err
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var r domain.Review
	err := row.Scan(
		&r.ID, &r.JobID, &r.ProviderID, &r.ClientID, &r.QualityRating, &r.TimelinessRating,
		&r.ProfessionalismRating, &r.Rating, &r.Comment, &r.ReviewDate,
	)
	return r, err
}

func scanProfile(row pgx.Row) (domain.ProviderProfile, error) {
	var p domain.ProviderProfile
	err := row.Scan(&p.ProviderID, &p.DisplayName, &p.Email, &p.Rating, &p.ReviewsCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("iterate rows: %w", err))
	}
	return out, nil
}
