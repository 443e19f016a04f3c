/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the affiliate-service needs. Keeping the interface separate from
 * the PostgreSQL implementation decouples the business logic from the
 * database and lets tests substitute stub repositories.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Affiliate methods
	CreateAffiliate(ctx context.Context, affiliate *domain.Affiliate) error
	FindAffiliateByID(ctx context.Context, affiliateID uuid.UUID) (*domain.Affiliate, error)
	FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	SetAffiliateSuspended(ctx context.Context, affiliateID uuid.UUID, suspended bool) error
	UpdateAffiliatePayoutDestination(ctx context.Context, affiliateID uuid.UUID, accountNumber, accountName string) error

	// Click ledger methods
	HasRecentClick(ctx context.Context, affiliateID uuid.UUID, visitorHash string, since time.Time) (bool, error)
	CreateClick(ctx context.Context, click *domain.Click) error
	CountClicks(ctx context.Context, affiliateID uuid.UUID) (int64, error)

	// Commission ledger methods
	CreateCommission(ctx context.Context, commission *domain.Commission) error
	FindCommissionByID(ctx context.Context, commissionID uuid.UUID) (*domain.Commission, error)
	FindCommissionsByAffiliateID(ctx context.Context, affiliateID uuid.UUID) ([]domain.Commission, error)
	FindOutstandingCommissions(ctx context.Context, affiliateID uuid.UUID) ([]domain.Commission, error)
	UpdateCommissionStatus(ctx context.Context, commissionID uuid.UUID, fromStatus, toStatus string) error
	GetCommissionStatusCounts(ctx context.Context, affiliateID uuid.UUID) (*domain.CommissionStatusCounts, error)
	ListSalesDetail(ctx context.Context, affiliateID uuid.UUID, opts domain.SalesListOptions) ([]domain.SalesDetailRow, error)

	// Payout methods
	FindAffiliatesWithOutstandingCommissions(ctx context.Context) ([]domain.Affiliate, error)
	ExecutePayout(ctx context.Context, affiliate *domain.Affiliate) (*domain.Payment, int, error)
	FindPaymentsByAffiliateID(ctx context.Context, affiliateID uuid.UUID) ([]domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status string) error

	// Funnel analytics methods
	CountSignups(ctx context.Context, affiliateID uuid.UUID) (int64, error)
	CountPaidConversions(ctx context.Context, affiliateID uuid.UUID) (int64, error)
	CountActiveSubscriptions(ctx context.Context, affiliateID uuid.UUID) (int64, error)
	ClickCountsByDay(ctx context.Context, affiliateID uuid.UUID, since time.Time) (map[string]int64, error)
	SignupCountsByDay(ctx context.Context, affiliateID uuid.UUID, since time.Time) (map[string]int64, error)
	CommissionCountsByDay(ctx context.Context, affiliateID uuid.UUID, since time.Time) (map[string]int64, error)

	// Notification methods
	CreateNotification(ctx context.Context, notification *domain.Notification) error
	ListNotifications(ctx context.Context, affiliateID uuid.UUID, opts domain.NotificationListOptions) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, affiliateID uuid.UUID, notificationID uuid.UUID) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, affiliateID uuid.UUID) (int64, error)
	CountUnreadNotifications(ctx context.Context, affiliateID uuid.UUID) (int64, error)
}
