/**
 * @description
 * Click ledger operations: recording and deduplicating referral-link visits.
 */

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
)

// RecordClick records one referral-link visit for the affiliate behind the
// referral code. Within the dedup window the same (affiliate, hashed
// address) pair counts once: a repeat visit is an idempotent no-op, not an
// error. Clicks for suspended affiliates are dropped the same way.
func (s *Service) RecordClick(ctx context.Context, referralCode, rawNetworkAddress string) (bool, error) {
	affiliate, err := s.repo.FindAffiliateByReferralCode(ctx, domain.NormalizeReferralCode(referralCode))
	if err != nil {
		return false, err
	}
	if affiliate.Suspended {
		return false, nil
	}

	hash := domain.HashVisitorAddress(s.clickSalt, rawNetworkAddress)
	since := time.Now().UTC().Add(-domain.ClickDedupWindow)

	seen, err := s.repo.HasRecentClick(ctx, affiliate.ID, hash, since)
	if err != nil {
		return false, fmt.Errorf("failed to check recent clicks: %w", err)
	}
	if seen {
		return false, nil
	}

	click := &domain.Click{
		ID:          uuid.New(),
		AffiliateID: affiliate.ID,
		VisitorHash: hash,
	}
	if err := s.repo.CreateClick(ctx, click); err != nil {
		return false, fmt.Errorf("failed to record click: %w", err)
	}
	return true, nil
}
