/**
 * @description
 * Scheduled job implementations for the affiliate-service.
 */
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shoplane/affiliate-service/internal/store"
)

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	service *Service
	repo    store.Repository
	logger  *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(service *Service, repo store.Repository, logger *slog.Logger) *Jobs {
	return &Jobs{
		service: service,
		repo:    repo,
		logger:  logger,
	}
}

// RunAutoPayouts settles every affiliate whose withdrawable balance has
// cleared the minimum payout amount and whose payout schedule is due. One
// affiliate failing does not stop the run; the payout itself is atomic per
// affiliate, so a partial run just means the rest are picked up next night.
func (j *Jobs) RunAutoPayouts() {
	j.logger.Info("starting auto payout job")
	ctx := context.Background()

	candidates, err := j.repo.FindAffiliatesWithOutstandingCommissions(ctx)
	if err != nil {
		j.logger.Error("failed to list payout candidates", "error", err)
		return
	}

	paid := 0
	for _, affiliate := range candidates {
		balances, err := j.service.ComputeBalances(ctx, affiliate.ID)
		if err != nil {
			j.logger.Error("failed to compute balances", "affiliate_id", affiliate.ID, "error", err)
			continue
		}
		if balances.Withdrawable.LessThan(balances.MinPayoutAmount) {
			continue
		}
		if balances.DaysUntilPayout == nil || *balances.DaysUntilPayout > 0 {
			continue
		}

		result, err := j.service.Payout(ctx, affiliate.ID)
		if err != nil {
			if errors.Is(err, store.ErrNothingToPay) {
				// Lost a race with a manual payout; nothing owed anymore.
				continue
			}
			j.logger.Error("auto payout failed", "affiliate_id", affiliate.ID, "error", err)
			continue
		}
		paid++
		j.logger.Info("auto payout completed",
			"affiliate_id", affiliate.ID,
			"payment_id", result.PaymentID,
			"amount", result.Amount.StringFixed(2),
			"commissions", result.CommissionCount,
		)
	}

	j.logger.Info("auto payout job finished", "candidates", len(candidates), "paid", paid)
}
