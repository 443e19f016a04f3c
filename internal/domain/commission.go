/**
 * @description
 * This file defines the commission domain model, the plan-tier rate table,
 * and the pure commission calculator. A commission is the monetary credit
 * owed to an affiliate for one referred subscription sale.
 *
 * Key features:
 * - Amounts are `shopspring/decimal` values rounded to 2 places at the point
 *   of computation. The stored amounts are the source of truth afterwards;
 *   they are never re-derived, so payout totals cannot drift from history
 *   when the rate table changes.
 * - The status lifecycle is pending -> approved -> paid, with cancellation
 *   allowed from the two non-terminal states. `paid` and `cancelled` are
 *   terminal.
 *
 * @dependencies
 * - github.com/shopspring/decimal: Exact decimal arithmetic for money.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanTier identifies the subscription plan a referred sale was made on.
type PlanTier string

const (
	PlanTierMonthly PlanTier = "monthly"
	PlanTierMid     PlanTier = "mid"
	PlanTierYearly  PlanTier = "yearly"
)

// Commission status values.
const (
	CommissionStatusPending   = "pending"
	CommissionStatusApproved  = "approved"
	CommissionStatusPaid      = "paid"
	CommissionStatusCancelled = "cancelled"
)

// PaymentType tags whether a commission came from a first purchase or a renewal.
const (
	PaymentTypeFirst   = "first"
	PaymentTypeRenewal = "renewal"
)

// commissionRates maps each plan tier to its commission rate in percent.
// Yearly plans pay the highest rate, monthly the lowest.
var commissionRates = map[PlanTier]decimal.Decimal{
	PlanTierMonthly: decimal.NewFromInt(10),
	PlanTierMid:     decimal.NewFromInt(15),
	PlanTierYearly:  decimal.NewFromInt(20),
}

// Commission represents one monetary obligation arising from one referred
// sale. Maps to the `commissions` table.
type Commission struct {
	ID               uuid.UUID       `json:"id"`
	AffiliateID      uuid.UUID       `json:"affiliate_id"`
	ReferredUserID   uuid.UUID       `json:"referred_user_id"`
	PlanTier         PlanTier        `json:"plan_tier"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	VATRate          decimal.Decimal `json:"vat_rate"`
	BaseAmount       decimal.Decimal `json:"base_amount"`
	RatePercent      decimal.Decimal `json:"rate_percent"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	PaymentType      string          `json:"payment_type"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
}

// CommissionBreakdown is the result of the pure commission calculation.
type CommissionBreakdown struct {
	BaseAmount       decimal.Decimal `json:"base_amount"`
	RatePercent      decimal.Decimal `json:"rate_percent"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
}

// RateForTier returns the commission rate for a plan tier. Unknown tiers fall
// back to the lowest (monthly) rate so an unrecognized plan never blocks a
// sale from being recorded.
func RateForTier(tier PlanTier) decimal.Decimal {
	if rate, ok := commissionRates[tier]; ok {
		return rate
	}
	return commissionRates[PlanTierMonthly]
}

// ComputeCommission converts a gross sale amount, plan tier, and VAT rate
// into a commission breakdown. Pure, no side effects. The caller is
// responsible for validating grossAmount > 0.
//
//	base       = round2(gross / (1 + vat/100)), or gross when vat <= 0
//	commission = round2(base * rate/100)
func ComputeCommission(grossAmount decimal.Decimal, tier PlanTier, vatRatePercent decimal.Decimal) CommissionBreakdown {
	rate := RateForTier(tier)

	base := grossAmount
	if vatRatePercent.IsPositive() {
		divisor := decimal.NewFromInt(1).Add(vatRatePercent.Div(decimal.NewFromInt(100)))
		base = grossAmount.Div(divisor).Round(2)
	}

	commission := base.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)

	return CommissionBreakdown{
		BaseAmount:       base,
		RatePercent:      rate,
		CommissionAmount: commission,
	}
}

// CommissionTerminal reports whether a status admits no further transitions.
func CommissionTerminal(status string) bool {
	return status == CommissionStatusPaid || status == CommissionStatusCancelled
}

// ValidCommissionTransition reports whether moving a commission from one
// status to another is legal.
func ValidCommissionTransition(from, to string) bool {
	switch from {
	case CommissionStatusPending:
		return to == CommissionStatusApproved || to == CommissionStatusPaid || to == CommissionStatusCancelled
	case CommissionStatusApproved:
		return to == CommissionStatusPaid || to == CommissionStatusCancelled
	default:
		return false
	}
}

// ValidPlanTier reports whether the tier is one of the known plan tiers.
func ValidPlanTier(tier PlanTier) bool {
	_, ok := commissionRates[tier]
	return ok
}

// ValidPaymentType reports whether the tag is a known payment type.
func ValidPaymentType(paymentType string) bool {
	return paymentType == PaymentTypeFirst || paymentType == PaymentTypeRenewal
}

// CommissionStatusCounts holds the per-status count and summed commission
// amount buckets used by the admin dashboard.
type CommissionStatusCounts struct {
	PendingCount    int64           `json:"pending_count"`
	PendingAmount   decimal.Decimal `json:"pending_amount"`
	ApprovedCount   int64           `json:"approved_count"`
	ApprovedAmount  decimal.Decimal `json:"approved_amount"`
	PaidCount       int64           `json:"paid_count"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	CancelledCount  int64           `json:"cancelled_count"`
	CancelledAmount decimal.Decimal `json:"cancelled_amount"`
}
