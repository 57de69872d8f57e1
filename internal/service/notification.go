package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// NotificationBounds are the default and maximum sizes of a notification listing.
var NotificationBounds = pagination.Bounds{Default: 50, Max: 100}

// NotificationService exposes the seller notification inbox.
type NotificationService struct {
	repo     repository.NotificationRepository
	settings Settings
	logger   *slog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(repo repository.NotificationRepository, settings Settings, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:     repo,
		settings: settings,
		logger:   logger,
	}
}

// ListForRecipient returns the recipient's notifications, newest first.
func (s *NotificationService) ListForRecipient(ctx context.Context, actor domain.Actor, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if recipientID == "" {
		return nil, apperrors.InvalidInput("recipient id is required")
	}
	if actor.ID != recipientID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("notifications can only be read by their recipient")
	}

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	notes, err := s.repo.ListForRecipient(ctx, recipientID, unreadOnly, NotificationBounds.Clamp(limit))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notes, nil
}

// MarkRead flags a notification read. Marking a read notification again
// returns it unchanged.
func (s *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id string) (*domain.Notification, error) {
	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if !n.CanBeReadBy(actor) {
		return nil, apperrors.Forbidden("notifications can only be marked by their recipient")
	}
	if n.Read {
		return n, nil
	}

	n, err = s.repo.MarkRead(ctx, id, s.settings.now())
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}

	s.logger.DebugContext(ctx, "notification marked read", slog.String("notification_id", id))
	return n, nil
}
