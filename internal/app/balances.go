/**
 * @description
 * Balance aggregation: splitting an affiliate's outstanding commissions into
 * withdrawable vs. pending using the security hold window, plus the lifetime
 * earnings total and the payout schedule.
 */

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shopspring/decimal"
)

// ComputeBalances builds the balance snapshot for one affiliate. Every
// non-terminal commission contributes to pending; only those older than the
// security hold contribute to withdrawable, so withdrawable <= pending
// always. TotalEarned sums all commissions regardless of status: a
// lifetime-value metric, not a balance. The snapshot is always fully
// populated; a brand-new affiliate gets zeroes, never an error.
func (s *Service) ComputeBalances(ctx context.Context, affiliateID uuid.UUID) (*domain.BalanceSnapshot, error) {
	outstanding, err := s.repo.FindOutstandingCommissions(ctx, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding commissions: %w", err)
	}
	all, err := s.repo.FindCommissionsByAffiliateID(ctx, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load commission history: %w", err)
	}

	now := time.Now().UTC()
	holdCutoff := now.AddDate(0, 0, -domain.SecurityHoldDays)

	pending := decimal.Zero
	withdrawable := decimal.Zero
	saleTimes := make([]time.Time, 0, len(outstanding))
	for _, c := range outstanding {
		pending = pending.Add(c.CommissionAmount)
		if c.CreatedAt.Before(holdCutoff) {
			withdrawable = withdrawable.Add(c.CommissionAmount)
		}
		saleTimes = append(saleTimes, c.CreatedAt)
	}

	totalEarned := decimal.Zero
	for _, c := range all {
		totalEarned = totalEarned.Add(c.CommissionAmount)
	}

	nextPayoutDate, daysUntilPayout := domain.NextPayout(saleTimes, now)

	return &domain.BalanceSnapshot{
		Withdrawable:    withdrawable,
		Pending:         pending,
		TotalEarned:     totalEarned,
		NextPayoutDate:  nextPayoutDate,
		DaysUntilPayout: daysUntilPayout,
		MinPayoutAmount: domain.MinPayoutAmount,
	}, nil
}
