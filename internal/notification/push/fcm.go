// Package push mirrors in-app notifications to users' devices through
// Firebase Cloud Messaging.
package push

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"

	"kazi_backend/internal/notification/inapp"
	"kazi_backend/internal/sideeffect"
	"kazi_backend/platform/logger"
)

// Tokens is the token storage used by Sender.
type Tokens interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	Remove(ctx context.Context, tokens []string) error
}

// Messenger is the subset of *messaging.Client used here.
type Messenger interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Sender pushes notifications to every device a user registered.
type Sender struct {
	client Messenger
	tokens Tokens
	log    *logger.Logger
}

func NewSender(client Messenger, tokens Tokens, log *logger.Logger) *Sender {
	return &Sender{client: client, tokens: tokens, log: log}
}

// Push sends n to the user's devices. Tokens FCM reports as unregistered
// are removed. A user without devices is not an error.
func (s *Sender) Push(ctx context.Context, n inapp.Notification) error {
	tokens, err := s.tokens.ListByUser(ctx, n.UserID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	data := map[string]string{
		"notificationId": n.ID.String(),
		"type":           n.Type,
	}
	if n.RelatedEntityID != nil {
		data["relatedEntityId"] = n.RelatedEntityID.String()
	}
	if n.Link != nil {
		data["link"] = *n.Link
	}

	resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: titleFor(n.Type),
			Body:  n.Message,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
		},
	})
	if err != nil {
		return fmt.Errorf("fcm multicast: %w", err)
	}

	var stale []string
	for i, r := range resp.Responses {
		if r.Success || r.Error == nil {
			continue
		}
		if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
			stale = append(stale, tokens[i])
		}
	}
	if len(stale) > 0 {
		if err := s.tokens.Remove(ctx, stale); err != nil {
			s.log.Warn("failed to prune stale device tokens", "error", err, "count", len(stale))
		}
	}

	if resp.SuccessCount == 0 && resp.FailureCount > len(stale) {
		return fmt.Errorf("fcm: all %d deliveries failed", resp.FailureCount)
	}
	return nil
}

func titleFor(notificationType string) string {
	switch notificationType {
	case sideeffect.TypeQuoteReceived:
		return "New quote"
	case sideeffect.TypeQuoteAccepted:
		return "Quote accepted"
	case sideeffect.TypeQuoteRejected:
		return "Quote declined"
	case sideeffect.TypeJobCompleted:
		return "Job completed"
	case sideeffect.TypeReviewReceived:
		return "New review"
	default:
		return "Kazi"
	}
}
