// Package inapp stores the notifications shown inside the app and mirrors
// each one to the user's devices as a push message.
package inapp

import (
	"context"

	"kazi_backend/internal/sideeffect"
	"kazi_backend/platform/apperr"
	"kazi_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence used by Service.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error
}

// Pusher delivers a stored notification to the user's devices.
type Pusher interface {
	Push(ctx context.Context, n Notification) error
}

type Service struct {
	repo   Store
	pusher Pusher
	log    *logger.Logger
}

func NewService(repo Store, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// SetPusher injects the push sender.
func (s *Service) SetPusher(p Pusher) {
	s.pusher = p
}

// Notify persists the notification and pushes it to the user's devices.
// Only the write decides success; a failed push is logged.
func (s *Service) Notify(ctx context.Context, n sideeffect.Notification) error {
	if s == nil || s.repo == nil {
		return apperr.Internal("in-app notification service not configured")
	}

	params := CreateParams{
		UserID:  n.UserID,
		Type:    n.Type,
		Message: n.Message,
	}
	if n.RelatedEntityID != uuid.Nil {
		related := n.RelatedEntityID
		params.RelatedEntityID = &related
	}
	if n.Link != "" {
		link := n.Link
		params.Link = &link
	}

	notif, err := s.repo.Create(ctx, params)
	if err != nil {
		s.log.Error("failed to persist in-app notification", "error", err, "userId", n.UserID)
		return err
	}

	if s.pusher != nil {
		if err := s.pusher.Push(ctx, notif); err != nil {
			s.log.Warn("push notification failed", "error", err, "userId", n.UserID, "notificationId", notif.ID)
		}
	}

	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.repo.List(ctx, userID, pageSize, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}
