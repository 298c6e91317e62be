package service

import (
	"context"
	"testing"
	"time"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := New(memstore.New())
	fixed := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return fixed })

	job, err := svc.Create(ctx, domain.NewJobParams{ClientID: uuid.New(), Title: "Install shelves"})
	require.NoError(t, err)
	assert.Equal(t, domain.JobOpen, job.Status)

	provider := uuid.New()
	job, err = svc.SetStatus(ctx, job.ID, domain.JobAssigned, &provider)
	require.NoError(t, err)
	assert.Equal(t, provider, *job.AssignedProviderID)

	job, err = svc.SetStatus(ctx, job.ID, domain.JobInProgress, nil)
	require.NoError(t, err)
	assert.Equal(t, provider, *job.AssignedProviderID)

	job, err = svc.SetStatus(ctx, job.ID, domain.JobCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, fixed, job.UpdatedAt)

	stored, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, stored.Status)
}

func TestSetStatusErrors(t *testing.T) {
	ctx := context.Background()
	svc := New(memstore.New())

	_, err := svc.SetStatus(ctx, uuid.New(), domain.JobCancelled, nil)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	job, err := svc.Create(ctx, domain.NewJobParams{ClientID: uuid.New(), Title: "Mow lawn"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, job.ID, domain.JobCompleted, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobOpen, stored.Status)
}

func TestReopenClearsAssignment(t *testing.T) {
	ctx := context.Background()
	svc := New(memstore.New())
	job, err := svc.Create(ctx, domain.NewJobParams{ClientID: uuid.New(), Title: "Move sofa"})
	require.NoError(t, err)

	provider := uuid.New()
	_, err = svc.SetStatus(ctx, job.ID, domain.JobAssigned, &provider)
	require.NoError(t, err)

	job, err = svc.SetStatus(ctx, job.ID, domain.JobOpen, nil)
	require.NoError(t, err)
	assert.Nil(t, job.AssignedProviderID)
}
