package orchestrator

import (
	"context"
	"fmt"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/sideeffect"

	"github.com/google/uuid"
)

const (
	opPostJob      = "post_job"
	opStartJob     = "start_job"
	opCompleteJob  = "complete_job"
	opCancelJob    = "cancel_job"
	opRaiseDispute = "raise_dispute"
	opReopenJob    = "reopen_job"
)

// PostJob creates an open job for a client.
func (o *Orchestrator) PostJob(ctx context.Context, p domain.NewJobParams) (domain.Job, error) {
	return retry(ctx, o, opPostJob, func(ctx context.Context) (domain.Job, error) {
		return o.jobs.Create(ctx, p)
	})
}

// StartJob moves an assigned job to in_progress. Only the assigned
// provider may start it.
func (o *Orchestrator) StartJob(ctx context.Context, jobID, actingProviderID uuid.UUID) (domain.Job, error) {
	job, err := retry(ctx, o, opStartJob, func(ctx context.Context) (domain.Job, error) {
		job, err := o.jobs.Get(ctx, jobID)
		if err != nil {
			return domain.Job{}, err
		}
		if job.AssignedProviderID == nil || *job.AssignedProviderID != actingProviderID {
			return domain.Job{}, domain.ErrUnauthorized.WithOp(opStartJob)
		}
		if job.Status != domain.JobAssigned {
			return domain.Job{}, invalidTransition(job.Status, domain.JobInProgress)
		}
		return o.jobs.SetStatus(ctx, jobID, domain.JobInProgress, nil)
	})
	if err != nil {
		return domain.Job{}, err
	}

	o.notifyJob(ctx, job.ClientID, job, sideeffect.TypeJobStarted,
		fmt.Sprintf("Work on %q has started", job.Title))
	return job, nil
}

// MarkComplete lets a job's client mark assigned or in-progress work done,
// then tells the provider.
func (o *Orchestrator) MarkComplete(ctx context.Context, jobID, actingClientID uuid.UUID) (domain.Job, error) {
	job, err := retry(ctx, o, opCompleteJob, func(ctx context.Context) (domain.Job, error) {
		job, err := o.ownedJob(ctx, jobID, actingClientID, opCompleteJob)
		if err != nil {
			return domain.Job{}, err
		}
		if job.Status != domain.JobAssigned && job.Status != domain.JobInProgress {
			return domain.Job{}, invalidTransition(job.Status, domain.JobCompleted)
		}
		return o.jobs.SetStatus(ctx, jobID, domain.JobCompleted, nil)
	})
	if err != nil {
		return domain.Job{}, err
	}

	if job.AssignedProviderID != nil {
		o.notifyJob(ctx, *job.AssignedProviderID, job, sideeffect.TypeJobCompleted,
			fmt.Sprintf("%q was marked complete", job.Title))
	}
	return job, nil
}

// CancelJob cancels a job that has not finished. The provider it was
// assigned to, if any, is told.
func (o *Orchestrator) CancelJob(ctx context.Context, jobID, actingClientID uuid.UUID) (domain.Job, error) {
	var released *uuid.UUID
	job, err := retry(ctx, o, opCancelJob, func(ctx context.Context) (domain.Job, error) {
		job, err := o.ownedJob(ctx, jobID, actingClientID, opCancelJob)
		if err != nil {
			return domain.Job{}, err
		}
		released = job.AssignedProviderID
		return o.jobs.SetStatus(ctx, jobID, domain.JobCancelled, nil)
	})
	if err != nil {
		return domain.Job{}, err
	}

	if released != nil {
		o.notifyJob(ctx, *released, job, sideeffect.TypeJobCancelled,
			fmt.Sprintf("%q was cancelled by the client", job.Title))
	}
	return job, nil
}

// RaiseDispute moves a job to disputed on behalf of its client or its
// assigned provider and tells the other party.
func (o *Orchestrator) RaiseDispute(ctx context.Context, jobID, actingUserID uuid.UUID, reason string) (domain.Job, error) {
	var counterpart uuid.UUID
	job, err := retry(ctx, o, opRaiseDispute, func(ctx context.Context) (domain.Job, error) {
		job, err := o.jobs.Get(ctx, jobID)
		if err != nil {
			return domain.Job{}, err
		}
		if !job.IsParticipant(actingUserID) {
			return domain.Job{}, domain.ErrUnauthorized.WithOp(opRaiseDispute)
		}
		counterpart = job.ClientID
		if actingUserID == job.ClientID {
			counterpart = uuid.Nil
			if job.AssignedProviderID != nil {
				counterpart = *job.AssignedProviderID
			}
		}
		return o.jobs.SetStatus(ctx, jobID, domain.JobDisputed, nil)
	})
	if err != nil {
		return domain.Job{}, err
	}

	if counterpart != uuid.Nil {
		o.notifyJob(ctx, counterpart, job, sideeffect.TypeJobDisputed,
			fmt.Sprintf("A dispute was raised on %q: %s", job.Title, reason))
	}
	return job, nil
}

// ReopenJob returns an assigned job to open after the provider backed out.
// The job keeps its accepted quote, so it can only be reassigned directly.
func (o *Orchestrator) ReopenJob(ctx context.Context, jobID, actingClientID uuid.UUID) (domain.Job, error) {
	var released *uuid.UUID
	job, err := retry(ctx, o, opReopenJob, func(ctx context.Context) (domain.Job, error) {
		job, err := o.ownedJob(ctx, jobID, actingClientID, opReopenJob)
		if err != nil {
			return domain.Job{}, err
		}
		released = job.AssignedProviderID
		return o.jobs.SetStatus(ctx, jobID, domain.JobOpen, nil)
	})
	if err != nil {
		return domain.Job{}, err
	}

	if released != nil {
		o.notifyJob(ctx, *released, job, sideeffect.TypeJobReopened,
			fmt.Sprintf("You were released from %q", job.Title))
	}
	return job, nil
}

func (o *Orchestrator) ownedJob(ctx context.Context, jobID, actingClientID uuid.UUID, op string) (domain.Job, error) {
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return domain.Job{}, err
	}
	if job.ClientID != actingClientID {
		return domain.Job{}, domain.ErrUnauthorized.WithOp(op)
	}
	return job, nil
}

func (o *Orchestrator) notifyJob(ctx context.Context, userID uuid.UUID, job domain.Job, notificationType, message string) {
	o.effects.Notify(ctx, sideeffect.Notification{
		UserID:          userID,
		Type:            notificationType,
		Message:         message,
		RelatedEntityID: job.ID,
		Link:            o.link("/jobs/" + job.ID.String()),
	})
}

func invalidTransition(from, to domain.JobStatus) error {
	return domain.ErrInvalidTransition.WithDetails(map[string]string{
		"from": string(from),
		"to":   string(to),
	})
}
