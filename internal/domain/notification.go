/**
 * @description
 * This file defines the affiliate-facing notification model. Notifications
 * are an append-only event log; marking one read is the only mutation.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification type tags.
const (
	NotificationTypePayout     = "payout"
	NotificationTypeCommission = "commission"
	NotificationTypeSystem     = "system"
)

// Notification represents one affiliate-facing event record. Maps to the
// `notifications` table.
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	AffiliateID uuid.UUID  `json:"affiliate_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Body        *string    `json:"body,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NotificationListOptions controls pagination for the notification feed.
type NotificationListOptions struct {
	Limit  int
	Offset int
}
