package transport

import (
	"time"

	"kazi_backend/internal/domain"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// SubmitQuoteRequest is the request body for quoting on a job. ClientID is
// optional and, when present, must name the job's owner.
type SubmitQuoteRequest struct {
	ClientID    *uuid.UUID `json:"clientId"`
	AmountCents int64      `json:"amountCents" validate:"required,min=1"`
	Currency    string     `json:"currency" validate:"required,iso4217"`
	Message     string     `json:"message" validate:"max=2000"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// QuoteResponse is the public shape of a quote.
type QuoteResponse struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"jobId"`
	ProviderID  uuid.UUID `json:"providerId"`
	ClientID    uuid.UUID `json:"clientId"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AcceptQuoteResponse is returned once a quote is accepted. ChatID is empty
// when the conversation could not be provisioned yet.
type AcceptQuoteResponse struct {
	Quote              QuoteResponse `json:"quote"`
	JobID              uuid.UUID     `json:"jobId"`
	JobStatus          string        `json:"jobStatus"`
	AssignedProviderID uuid.UUID     `json:"assignedProviderId"`
	ChatID             string        `json:"chatId,omitempty"`
}

// QuoteListResponse wraps the quotes on a job.
type QuoteListResponse struct {
	Items []QuoteResponse `json:"items"`
	Total int             `json:"total"`
}

// ToQuoteResponse maps a domain quote to its response.
func ToQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:          q.ID,
		JobID:       q.JobID,
		ProviderID:  q.ProviderID,
		ClientID:    q.ClientID,
		AmountCents: q.AmountCents,
		Currency:    q.Currency,
		Message:     q.Message,
		Status:      string(q.Status),
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// ToQuoteListResponse maps a slice of quotes.
func ToQuoteListResponse(quotes []domain.Quote) QuoteListResponse {
	items := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, ToQuoteResponse(q))
	}
	return QuoteListResponse{Items: items, Total: len(items)}
}
