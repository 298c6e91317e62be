package push

import (
	"context"
	"fmt"

	"kazi_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opRegister = "notification.push.tokens.register"
	opList     = "notification.push.tokens.list"
	opRemove   = "notification.push.tokens.remove"
)

// TokenRepository stores FCM registration tokens per user.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Register attaches token to userID. A token moved to another account is
// reassigned.
func (r *TokenRepository) Register(ctx context.Context, userID uuid.UUID, token, platform string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO device_tokens (token, user_id, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = now()
	`, token, userID, platform)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("register device token failed: %v", err)).WithOp(opRegister)
	}
	return nil
}

func (r *TokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT token FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list device tokens failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan device token failed: %v", err)).WithOp(opList)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate device tokens failed: %v", err)).WithOp(opList)
	}
	return tokens, nil
}

func (r *TokenRepository) Remove(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM device_tokens WHERE token = ANY($1)`, tokens)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("remove device tokens failed: %v", err)).WithOp(opRemove)
	}
	return nil
}
