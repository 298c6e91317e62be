// Package sideeffect dispatches the best-effort work that follows a
// committed lifecycle operation: in-app notifications, chat provisioning
// and email. A failed effect is logged, counted and queued for replay; it
// never reaches the caller of the authoritative operation.
package sideeffect

import (
	"context"

	"github.com/google/uuid"
)

// Kind names a replayable effect in the outbox.
type Kind string

const (
	KindNotify Kind = "notify"
	KindChat   Kind = "chat"
	KindEmail  Kind = "email"
)

// Email templates understood by the dispatcher.
const (
	TemplateQuoteAccepted  = "quote_accepted"
	TemplateReviewReceived = "review_received"
)

// Notification types shown to users.
const (
	TypeQuoteReceived  = "quote_received"
	TypeQuoteAccepted  = "quote_accepted"
	TypeQuoteRejected  = "quote_rejected"
	TypeJobAssigned    = "job_assigned"
	TypeJobStarted     = "job_started"
	TypeJobCompleted   = "job_completed"
	TypeJobCancelled   = "job_cancelled"
	TypeJobDisputed    = "job_disputed"
	TypeJobReopened    = "job_reopened"
	TypeReviewReceived = "review_received"
)

// Notification is one message to one user.
type Notification struct {
	UserID          uuid.UUID `json:"userId"`
	Type            string    `json:"type"`
	Message         string    `json:"message"`
	RelatedEntityID uuid.UUID `json:"relatedEntityId"`
	Link            string    `json:"link,omitempty"`
}

// ChatRequest asks for the chat between two users.
type ChatRequest struct {
	UserA uuid.UUID `json:"userA"`
	UserB uuid.UUID `json:"userB"`
	JobID uuid.UUID `json:"jobId"`
}

// EmailMessage is a templated email. Only the fields the template uses are set.
type EmailMessage struct {
	Template     string  `json:"template"`
	To           string  `json:"to"`
	ProviderName string  `json:"providerName"`
	JobTitle     string  `json:"jobTitle"`
	AmountCents  int64   `json:"amountCents,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	Comment      string  `json:"comment,omitempty"`
	Link         string  `json:"link,omitempty"`
}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ChatProvisioner returns the chat between two users, creating it on first
// use. Calling it again for the same pair returns the same chat.
type ChatProvisioner interface {
	GetOrCreateChat(ctx context.Context, userA, userB uuid.UUID) (string, error)
}

// Mailer sends the lifecycle emails.
type Mailer interface {
	SendQuoteAcceptedEmail(ctx context.Context, toEmail, providerName, jobTitle string, amountCents int64, currency, chatURL string) error
	SendReviewReceivedEmail(ctx context.Context, toEmail, providerName, jobTitle string, rating float64, comment string) error
}

// Queue stores failed effects for later replay.
type Queue interface {
	Enqueue(ctx context.Context, kind string, payload any) error
}
