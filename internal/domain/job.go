// Package domain holds the marketplace's lifecycle rules: the job and quote
// state machines and the provider rating aggregate. It performs no I/O.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobOpen          JobStatus = "open"
	JobPendingQuotes JobStatus = "pending_quotes"
	JobAssigned      JobStatus = "assigned"
	JobInProgress    JobStatus = "in_progress"
	JobCompleted     JobStatus = "completed"
	JobCancelled     JobStatus = "cancelled"
	JobDisputed      JobStatus = "disputed"
)

// jobTransitions lists, for each status, the statuses it may move to.
// assigned -> open is the only backwards edge.
var jobTransitions = map[JobStatus]map[JobStatus]bool{
	JobOpen: {
		JobPendingQuotes: true,
		JobAssigned:      true,
		JobCancelled:     true,
		JobDisputed:      true,
	},
	JobPendingQuotes: {
		JobAssigned:  true,
		JobCancelled: true,
		JobDisputed:  true,
	},
	JobAssigned: {
		JobInProgress: true,
		JobCompleted:  true,
		JobOpen:       true,
		JobCancelled:  true,
		JobDisputed:   true,
	},
	JobInProgress: {
		JobCompleted: true,
		JobCancelled: true,
		JobDisputed:  true,
	},
	JobDisputed: {
		JobCancelled: true,
	},
	JobCompleted: {},
	JobCancelled: {},
}

// ParseJobStatus converts raw input to a known status.
func ParseJobStatus(raw string) (JobStatus, bool) {
	s := JobStatus(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := jobTransitions[s]
	return s, ok
}

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return len(jobTransitions[s]) == 0
}

// AcceptsQuotes reports whether quotes may be submitted or accepted.
func (s JobStatus) AcceptsQuotes() bool {
	return s == JobOpen || s == JobPendingQuotes
}

// HasProvider reports whether a job in this status must carry an assigned provider.
func (s JobStatus) HasProvider() bool {
	return s == JobAssigned || s == JobInProgress || s == JobCompleted
}

// CanTransition reports whether from -> to is a permitted edge.
func CanTransition(from, to JobStatus) bool {
	return jobTransitions[from][to]
}

// Job is a client's posted request for service.
type Job struct {
	ID                 uuid.UUID
	ClientID           uuid.UUID
	Title              string
	Description        string
	Category           string
	Location           string
	BudgetCents        *int64
	Currency           string
	Status             JobStatus
	AssignedProviderID *uuid.UUID
	QuotesReceived     int
	AcceptedQuoteID    *uuid.UUID
	PostedAt           time.Time
	UpdatedAt          time.Time
}

// NewJobParams carries the client-supplied fields of a new job.
type NewJobParams struct {
	ClientID    uuid.UUID
	Title       string
	Description string
	Category    string
	Location    string
	BudgetCents *int64
	Currency    string
}

// NewJob builds an open job.
func NewJob(p NewJobParams, now time.Time) (Job, error) {
	if p.ClientID == uuid.Nil {
		return Job{}, ValidationError("clientId", "client is required")
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return Job{}, ValidationError("title", "title is required")
	}
	if p.BudgetCents != nil && *p.BudgetCents <= 0 {
		return Job{}, ValidationError("budgetCents", "budget must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.BudgetCents != nil && !validCurrency(currency) {
		return Job{}, ValidationError("currency", "currency must be a 3-letter ISO code")
	}

	return Job{
		ID:          uuid.New(),
		ClientID:    p.ClientID,
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		Category:    strings.TrimSpace(p.Category),
		Location:    strings.TrimSpace(p.Location),
		BudgetCents: p.BudgetCents,
		Currency:    currency,
		Status:      JobOpen,
		PostedAt:    now,
		UpdatedAt:   now,
	}, nil
}

// IsParticipant reports whether userID is the client or the assigned provider.
func (j Job) IsParticipant(userID uuid.UUID) bool {
	if j.ClientID == userID {
		return true
	}
	return j.AssignedProviderID != nil && *j.AssignedProviderID == userID
}

// Transition moves the job to status to. Moving to assigned requires a
// provider; moving anywhere that has no provider clears it.
func (j *Job) Transition(to JobStatus, providerID *uuid.UUID, now time.Time) error {
	if !CanTransition(j.Status, to) {
		return ErrInvalidTransition.WithDetails(map[string]string{
			"from": string(j.Status),
			"to":   string(to),
		})
	}

	switch {
	case to == JobAssigned:
		if providerID == nil || *providerID == uuid.Nil {
			return ValidationError("assignedProviderId", "assigning a job requires a provider")
		}
		if *providerID == j.ClientID {
			return ValidationError("assignedProviderId", "a client cannot be assigned to their own job")
		}
		id := *providerID
		j.AssignedProviderID = &id
	case !to.HasProvider():
		j.AssignedProviderID = nil
	}

	j.Status = to
	j.UpdatedAt = now
	return nil
}

// TakesQuotes reports whether quotes may be submitted or accepted. A job
// that once accepted a quote keeps it even after a reopen.
func (j Job) TakesQuotes() bool {
	return j.Status.AcceptsQuotes() && j.AcceptedQuoteID == nil
}

// AcceptQuote assigns the job to the quote's provider. The job must still be
// accepting quotes and must never have had a quote accepted.
func (j *Job) AcceptQuote(q Quote, now time.Time) error {
	if q.JobID != j.ID {
		return ErrQuoteJobMismatch
	}
	if !j.TakesQuotes() {
		return ErrJobNotAcceptingQuotes.WithDetails(map[string]string{"status": string(j.Status)})
	}
	if err := j.Transition(JobAssigned, &q.ProviderID, now); err != nil {
		return err
	}
	id := q.ID
	j.AcceptedQuoteID = &id
	return nil
}

// NoteQuoteReceived moves an open job to pending_quotes.
// It reports whether the status changed.
func (j *Job) NoteQuoteReceived(now time.Time) bool {
	if j.Status != JobOpen {
		return false
	}
	j.Status = JobPendingQuotes
	j.UpdatedAt = now
	return true
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
