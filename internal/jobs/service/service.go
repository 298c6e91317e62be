// Package service implements the job lifecycle manager. It owns every write
// to a job's status and assignment and never touches quotes or reviews.
package service

import (
	"context"
	"time"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
)

const (
	opCreate    = "jobs.service.create"
	opGet       = "jobs.service.get"
	opList      = "jobs.service.list_by_client"
	opSetStatus = "jobs.service.set_status"
)

// Service provides business logic for jobs.
type Service struct {
	store store.Gateway
	now   func() time.Time
}

// New creates a new jobs service.
func New(gw store.Gateway) *Service {
	return &Service{store: gw, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create posts a new job in status open.
func (s *Service) Create(ctx context.Context, params domain.NewJobParams) (domain.Job, error) {
	job, err := domain.NewJob(params, s.now().UTC())
	if err != nil {
		return domain.Job{}, err
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return domain.Job{}, store.MapError(err, nil, opCreate)
	}
	return job, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return domain.Job{}, store.MapError(err, domain.ErrJobNotFound, opGet)
	}
	return job, nil
}

// ListByClient returns a client's jobs, newest first.
func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Job, error) {
	jobs, err := s.store.ListJobsByClient(ctx, clientID)
	if err != nil {
		return nil, store.MapError(err, nil, opList)
	}
	return jobs, nil
}

// SetStatus moves a job to newStatus. assignedProviderID is required when
// moving to assigned and ignored otherwise. The transition is re-validated
// against the stored job inside a transaction, whatever the caller checked.
func (s *Service) SetStatus(ctx context.Context, jobID uuid.UUID, newStatus domain.JobStatus, assignedProviderID *uuid.UUID) (domain.Job, error) {
	var updated domain.Job
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if err := job.Transition(newStatus, assignedProviderID, s.now().UTC()); err != nil {
			return err
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}
		updated = job
		return nil
	})
	if err != nil {
		return domain.Job{}, store.MapError(err, domain.ErrJobNotFound, opSetStatus)
	}
	return updated, nil
}
