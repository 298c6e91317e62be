package transport

import (
	"time"

	"kazi_backend/internal/domain"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateJobRequest is the request body for posting a job.
type CreateJobRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"max=100"`
	Location    string `json:"location" validate:"max=300"`
	BudgetCents *int64 `json:"budgetCents" validate:"omitempty,min=1"`
	Currency    string `json:"currency" validate:"omitempty,iso4217"`
}

// DisputeRequest is the request body for raising a dispute.
type DisputeRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=2000"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// JobResponse is the public shape of a job.
type JobResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ClientID           uuid.UUID  `json:"clientId"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Category           string     `json:"category,omitempty"`
	Location           string     `json:"location,omitempty"`
	BudgetCents        *int64     `json:"budgetCents,omitempty"`
	Currency           string     `json:"currency,omitempty"`
	Status             string     `json:"status"`
	AssignedProviderID *uuid.UUID `json:"assignedProviderId,omitempty"`
	QuotesReceived     int        `json:"quotesReceived"`
	AcceptedQuoteID    *uuid.UUID `json:"acceptedQuoteId,omitempty"`
	PostedAt           time.Time  `json:"postedAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// JobListResponse wraps a client's jobs.
type JobListResponse struct {
	Items []JobResponse `json:"items"`
	Total int           `json:"total"`
}

// ToJobResponse maps a domain job to its response.
func ToJobResponse(j domain.Job) JobResponse {
	return JobResponse{
		ID:                 j.ID,
		ClientID:           j.ClientID,
		Title:              j.Title,
		Description:        j.Description,
		Category:           j.Category,
		Location:           j.Location,
		BudgetCents:        j.BudgetCents,
		Currency:           j.Currency,
		Status:             string(j.Status),
		AssignedProviderID: j.AssignedProviderID,
		QuotesReceived:     j.QuotesReceived,
		AcceptedQuoteID:    j.AcceptedQuoteID,
		PostedAt:           j.PostedAt,
		UpdatedAt:          j.UpdatedAt,
	}
}

// ToJobListResponse maps a slice of jobs.
func ToJobListResponse(jobs []domain.Job) JobListResponse {
	items := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, ToJobResponse(j))
	}
	return JobListResponse{Items: items, Total: len(items)}
}
