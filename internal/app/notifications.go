/**
 * @description
 * Notification feed operations for the affiliate-facing UI. The feed is
 * append-only; marking a notification read is the only mutation.
 */

package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/store"
)

// ListNotifications retrieves an affiliate's notification feed.
func (s *Service) ListNotifications(ctx context.Context, affiliateID uuid.UUID, opts domain.NotificationListOptions) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, affiliateID, opts)
}

// MarkNotificationRead sets a notification's read timestamp once.
func (s *Service) MarkNotificationRead(ctx context.Context, affiliateID, notificationID uuid.UUID) error {
	updated, err := s.repo.MarkNotificationRead(ctx, affiliateID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return store.ErrNotificationNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification for an affiliate
// and returns how many were updated.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	return s.repo.MarkAllNotificationsRead(ctx, affiliateID)
}

// CountUnreadNotifications returns the unread badge count.
func (s *Service) CountUnreadNotifications(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	return s.repo.CountUnreadNotifications(ctx, affiliateID)
}
