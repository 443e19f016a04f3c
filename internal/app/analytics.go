/**
 * @description
 * Funnel analytics read paths: the conversion summary and the dense 30-day
 * time series. Both tolerate empty history by returning zeroed structures so
 * dashboards render for a brand-new affiliate.
 */

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
)

// ConversionStats aggregates the click -> signup -> paid-conversion funnel
// for one affiliate.
func (s *Service) ConversionStats(ctx context.Context, affiliateID uuid.UUID) (*domain.ConversionStats, error) {
	clicks, err := s.repo.CountClicks(ctx, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}
	signups, err := s.repo.CountSignups(ctx, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("failed to count signups: %w", err)
	}
	conversions, err := s.repo.CountPaidConversions(ctx, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("failed to count paid conversions: %w", err)
	}
	active, err := s.repo.CountActiveSubscriptions(ctx, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active subscriptions: %w", err)
	}

	return &domain.ConversionStats{
		TotalClicks:         clicks,
		TotalSignups:        signups,
		PaidConversions:     conversions,
		ConversionRate:      domain.ConversionRate(clicks, signups),
		ActiveSubscriptions: active,
	}, nil
}

// DailyFunnelSeries buckets clicks, signups, and commission events per
// calendar day over the trailing window, zero-filling days with no activity
// so the output is always a dense, equal-length series suitable for charting.
func (s *Service) DailyFunnelSeries(ctx context.Context, affiliateID uuid.UUID) ([]domain.DailyFunnelPoint, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(domain.FunnelWindowDays - 1))

	clicks, err := s.repo.ClickCountsByDay(ctx, affiliateID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to bucket clicks: %w", err)
	}
	signups, err := s.repo.SignupCountsByDay(ctx, affiliateID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to bucket signups: %w", err)
	}
	commissions, err := s.repo.CommissionCountsByDay(ctx, affiliateID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to bucket commissions: %w", err)
	}

	series := make([]domain.DailyFunnelPoint, 0, domain.FunnelWindowDays)
	for i := 0; i < domain.FunnelWindowDays; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, domain.DailyFunnelPoint{
			Date:        day,
			Clicks:      clicks[day],
			Signups:     signups[day],
			Commissions: commissions[day],
		})
	}
	return series, nil
}
