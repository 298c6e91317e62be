package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores one chat per unordered pair of users.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOrCreate returns the chat for (low, high), creating it if needed.
// low must sort before high.
func (r *Repository) GetOrCreate(ctx context.Context, low, high uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chats (participant_low, participant_high)
		VALUES ($1, $2)
		ON CONFLICT (participant_low, participant_high)
		DO UPDATE SET participant_low = EXCLUDED.participant_low
		RETURNING id
	`, low, high).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert chat: %w", err)
	}
	return id, nil
}
