package firestorestore

import (
	"errors"
	"fmt"
	"testing"

	"kazi_backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(status.Error(codes.NotFound, "no doc")), store.ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("get job: %w", status.Error(codes.NotFound, "no doc"))), store.ErrNotFound)
	assert.ErrorIs(t, mapError(status.Error(codes.AlreadyExists, "guard exists")), store.ErrDuplicate)
	assert.ErrorIs(t, mapError(status.Error(codes.Aborted, "too much contention")), store.ErrConflict)

	other := errors.New("deadline")
	assert.Equal(t, other, mapError(other))
	assert.NoError(t, mapError(nil))
}

func TestReviewGuardIDIsPerPair(t *testing.T) {
	job, clientA, clientB := uuid.New(), uuid.New(), uuid.New()

	assert.Equal(t, reviewGuardID(job, clientA), reviewGuardID(job, clientA))
	assert.NotEqual(t, reviewGuardID(job, clientA), reviewGuardID(job, clientB))
	assert.Equal(t, job.String()+"_"+clientA.String(), reviewGuardID(job, clientA))
}
