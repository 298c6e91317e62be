package mongostore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(fmt.Errorf("find jobs: %w", mongo.ErrNoDocuments)), store.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, mapError(dup), store.ErrDuplicate)

	conflict := mongo.CommandError{Code: writeConflictCode, Message: "WriteConflict"}
	assert.ErrorIs(t, mapError(conflict), store.ErrConflict)

	transient := mongo.CommandError{Code: 251, Labels: []string{transientTxnLabel}}
	assert.ErrorIs(t, mapError(transient), store.ErrConflict)

	other := errors.New("socket closed")
	assert.Equal(t, other, mapError(other))
	assert.NoError(t, mapError(nil))
}

func TestJobDocKeepsOptionalFields(t *testing.T) {
	provider := uuid.New()
	budget := int64(250000)
	job := domain.Job{
		ID:                 uuid.New(),
		ClientID:           uuid.New(),
		Title:              "Paint fence",
		BudgetCents:        &budget,
		Currency:           "KES",
		Status:             domain.JobAssigned,
		AssignedProviderID: &provider,
		PostedAt:           time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	d := toJobDoc(job)
	assert.Nil(t, d.AcceptedQuoteID)
	assert.Equal(t, provider.String(), *d.AssignedProviderID)
	assert.Equal(t, job, d.toDomain())
}
