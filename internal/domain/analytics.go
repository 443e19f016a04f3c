/**
 * @description
 * This file defines the read models for funnel analytics and the paginated
 * sales-detail view, plus the derivation of the human-readable subscription
 * status label from a referred account's live subscription record.
 */

package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FunnelWindowDays is the trailing window covered by the daily time series.
const FunnelWindowDays = 30

// Subscription status labels derived at read time from the live
// subscription record of a referred account.
const (
	SubscriptionLabelActive  = "active"
	SubscriptionLabelTrial   = "trial"
	SubscriptionLabelExpired = "expired"
)

// ConversionStats is the funnel summary for one affiliate.
type ConversionStats struct {
	TotalClicks         int64   `json:"total_clicks"`
	TotalSignups        int64   `json:"total_signups"`
	PaidConversions     int64   `json:"paid_conversions"`
	ConversionRate      float64 `json:"conversion_rate"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
}

// DailyFunnelPoint is one day's bucket in the dense funnel time series.
type DailyFunnelPoint struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Clicks      int64  `json:"clicks"`
	Signups     int64  `json:"signups"`
	Commissions int64  `json:"commissions"`
}

// SalesDetailRow is one row of the paginated sales-detail view: a commission
// joined with the referred account's current subscription state. The
// subscription label is computed at query time, not stored.
type SalesDetailRow struct {
	CommissionID       uuid.UUID       `json:"commission_id"`
	ReferredUserID     uuid.UUID       `json:"referred_user_id"`
	CustomerName       string          `json:"customer_name"`
	StoreName          string          `json:"store_name"`
	PlanTier           PlanTier        `json:"plan_tier"`
	GrossAmount        decimal.Decimal `json:"gross_amount"`
	CommissionAmount   decimal.Decimal `json:"commission_amount"`
	PaymentType        string          `json:"payment_type"`
	Status             string          `json:"status"`
	SubscriptionPlan   string          `json:"subscription_plan"`
	SubscriptionExpiry *time.Time      `json:"subscription_expiry,omitempty"`
	SubscriptionLabel  string          `json:"subscription_label"`
	CreatedAt          time.Time       `json:"created_at"`
}

// SalesListOptions controls pagination and filtering for the sales-detail view.
type SalesListOptions struct {
	Limit    int
	Offset   int
	Search   string // matches customer or store name
	PlanTier string
	Status   string
}

// ConversionRate computes round2(signups / clicks * 100), short-circuiting
// to zero when there are no clicks.
func ConversionRate(totalClicks, totalSignups int64) float64 {
	if totalClicks <= 0 {
		return 0
	}
	rate := float64(totalSignups) / float64(totalClicks) * 100
	return math.Round(rate*100) / 100
}

// SubscriptionStatusLabel derives the display label for a referred account's
// subscription as of now. Free and trial plans read as trial; a paid plan
// past its expiry reads as expired.
func SubscriptionStatusLabel(plan string, expiresAt *time.Time, now time.Time) string {
	normalized := strings.ToLower(strings.TrimSpace(plan))
	if normalized == "" || normalized == "free" || normalized == "trial" {
		return SubscriptionLabelTrial
	}
	if expiresAt != nil && expiresAt.Before(now) {
		return SubscriptionLabelExpired
	}
	return SubscriptionLabelActive
}
