/**
 * @description
 * This file defines the payment (payout batch) domain model, the payout
 * policy constants, and the pure payout scheduling function.
 *
 * @notes
 * - The payout cooldown (5 days after the most recent sale, drives the
 *   schedule shown to affiliates) and the security hold (7 days before a
 *   commission becomes withdrawable) are deliberately independent windows.
 *   A commission can read "due today" while still held for two more days.
 */

package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// PayoutCooldownDays is the number of days after the most recent sale
	// before the next payout date is scheduled.
	PayoutCooldownDays = 5

	// SecurityHoldDays is how long a commission must season after its sale
	// before it counts as withdrawable.
	SecurityHoldDays = 7
)

// MinPayoutAmount is the policy minimum for a payout batch, returned for
// display on the balance snapshot. It is not enforced by the manual payout
// path, only by the scheduled auto-payout job.
var MinPayoutAmount = decimal.NewFromInt(1000)

// Payment status values.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusReversed  = "reversed"
)

// Payment represents one payout batch to one affiliate. Maps to the
// `payments` table. Immutable after creation except for status.
type Payment struct {
	ID                  uuid.UUID       `json:"id"`
	AffiliateID         uuid.UUID       `json:"affiliate_id"`
	Amount              decimal.Decimal `json:"amount"`
	Status              string          `json:"status"`
	MaskedAccountNumber string          `json:"masked_account_number"`
	ExternalReference   *string         `json:"external_reference,omitempty"`
	PaidAt              time.Time       `json:"paid_at"`
	CreatedAt           time.Time       `json:"created_at"`
}

// PayoutResult is returned by a successful payout batch.
type PayoutResult struct {
	PaymentID       uuid.UUID       `json:"payment_id"`
	Amount          decimal.Decimal `json:"amount"`
	CommissionCount int             `json:"commission_count"`
}

// BalanceSnapshot is the always-fully-populated balance view for one
// affiliate. Withdrawable is the subset of pending that has cleared the
// security hold, so withdrawable <= pending always holds.
type BalanceSnapshot struct {
	Withdrawable    decimal.Decimal `json:"withdrawable"`
	Pending         decimal.Decimal `json:"pending"`
	TotalEarned     decimal.Decimal `json:"total_earned"`
	NextPayoutDate  *time.Time      `json:"next_payout_date,omitempty"`
	DaysUntilPayout *int            `json:"days_until_payout,omitempty"`
	MinPayoutAmount decimal.Decimal `json:"min_payout_amount"`
}

// NextPayout derives the next eligible payout date and the days remaining
// from a set of historical sale timestamps. With no sales both outputs are
// nil. The date is the most recent sale plus the cooldown, truncated to a
// calendar day (UTC midnight); days remaining never goes negative, so a
// past-due date reads as "due today".
func NextPayout(saleTimes []time.Time, now time.Time) (*time.Time, *int) {
	if len(saleTimes) == 0 {
		return nil, nil
	}

	latest := saleTimes[0]
	for _, ts := range saleTimes[1:] {
		if ts.After(latest) {
			latest = ts
		}
	}

	due := latest.UTC().AddDate(0, 0, PayoutCooldownDays)
	dueMidnight := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)

	nowUTC := now.UTC()
	nowMidnight := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)

	days := int(math.Ceil(dueMidnight.Sub(nowMidnight).Hours() / 24))
	if days < 0 {
		days = 0
	}

	return &dueMidnight, &days
}
