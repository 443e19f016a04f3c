/**
 * @description
 * Commission ledger operations: creating commission records from sale
 * events, the status transition guard, and the read paths used by the
 * dashboards.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/pkg/rabbitmq"
	"github.com/shopspring/decimal"
)

// CreateCommissionInput carries one referred sale into the ledger. The
// referral code is resolved to an affiliate before pricing.
type CreateCommissionInput struct {
	ReferralCode   string          `json:"referral_code"`
	ReferredUserID uuid.UUID       `json:"referred_user_id"`
	PlanTier       domain.PlanTier `json:"plan_tier"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	VATRate        decimal.Decimal `json:"vat_rate"`
	PaymentType    string          `json:"payment_type"`
}

// CreateCommission prices a referred sale and inserts a pending commission
// row. Validation happens before any write; storage failures propagate so a
// sale event is never silently dropped.
func (s *Service) CreateCommission(ctx context.Context, input CreateCommissionInput) (*domain.Commission, error) {
	if !input.GrossAmount.IsPositive() {
		return nil, ErrInvalidSaleAmount
	}
	if input.VATRate.IsNegative() || input.VATRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrInvalidVATRate
	}
	if !domain.ValidPaymentType(input.PaymentType) {
		return nil, ErrInvalidPaymentType
	}

	affiliate, err := s.repo.FindAffiliateByReferralCode(ctx, domain.NormalizeReferralCode(input.ReferralCode))
	if err != nil {
		return nil, err
	}
	if affiliate.Suspended {
		return nil, ErrAffiliateSuspended
	}

	breakdown := domain.ComputeCommission(input.GrossAmount, input.PlanTier, input.VATRate)

	commission := &domain.Commission{
		ID:               uuid.New(),
		AffiliateID:      affiliate.ID,
		ReferredUserID:   input.ReferredUserID,
		PlanTier:         input.PlanTier,
		GrossAmount:      input.GrossAmount.Round(2),
		VATRate:          input.VATRate,
		BaseAmount:       breakdown.BaseAmount,
		RatePercent:      breakdown.RatePercent,
		CommissionAmount: breakdown.CommissionAmount,
		PaymentType:      input.PaymentType,
		Status:           domain.CommissionStatusPending,
	}
	if err := s.repo.CreateCommission(ctx, commission); err != nil {
		return nil, fmt.Errorf("failed to create commission record: %w", err)
	}

	if s.eventProducer != nil {
		event := rabbitmq.CommissionCreatedEvent{
			CommissionID:     commission.ID,
			AffiliateID:      commission.AffiliateID,
			CommissionAmount: commission.CommissionAmount,
			PlanTier:         string(commission.PlanTier),
			PaymentType:      commission.PaymentType,
			Timestamp:        time.Now().UTC(),
		}
		if err := s.eventProducer.Publish(ctx, s.eventExchange, "affiliate.commission.created", event); err != nil {
			log.Printf("level=warn component=app msg=\"commission created event publish failed\" commission_id=%s err=%v", commission.ID, err)
			// The commission is already persisted; the event is advisory.
		}
	}

	return commission, nil
}

// GetCommissions retrieves all commissions for an affiliate.
func (s *Service) GetCommissions(ctx context.Context, affiliateID uuid.UUID) ([]domain.Commission, error) {
	return s.repo.FindCommissionsByAffiliateID(ctx, affiliateID)
}

// GetCommissionStatusCounts retrieves the status-bucketed counts and summed
// amounts for an affiliate.
func (s *Service) GetCommissionStatusCounts(ctx context.Context, affiliateID uuid.UUID) (*domain.CommissionStatusCounts, error) {
	return s.repo.GetCommissionStatusCounts(ctx, affiliateID)
}

// ListSalesDetail retrieves the paginated, filterable sales rows joined with
// the referred accounts' live subscription state.
func (s *Service) ListSalesDetail(ctx context.Context, affiliateID uuid.UUID, opts domain.SalesListOptions) ([]domain.SalesDetailRow, error) {
	return s.repo.ListSalesDetail(ctx, affiliateID, opts)
}

// TransitionCommission moves a commission to a new status, rejecting any
// move out of a terminal state or any other illegal transition with
// ErrInvalidStateTransition before touching the database. The repository
// update re-checks the current status, so a concurrent writer cannot slip a
// terminal record through.
func (s *Service) TransitionCommission(ctx context.Context, commissionID uuid.UUID, toStatus string) (*domain.Commission, error) {
	commission, err := s.repo.FindCommissionByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}

	if !domain.ValidCommissionTransition(commission.Status, toStatus) {
		return nil, fmt.Errorf("%s -> %s: %w", commission.Status, toStatus, ErrInvalidStateTransition)
	}

	if err := s.repo.UpdateCommissionStatus(ctx, commissionID, commission.Status, toStatus); err != nil {
		return nil, err
	}

	return s.repo.FindCommissionByID(ctx, commissionID)
}

// ApproveCommission marks a pending commission as approved (manual review).
func (s *Service) ApproveCommission(ctx context.Context, commissionID uuid.UUID) (*domain.Commission, error) {
	return s.TransitionCommission(ctx, commissionID, domain.CommissionStatusApproved)
}

// CancelCommission cancels a non-terminal commission, e.g. after a refund.
func (s *Service) CancelCommission(ctx context.Context, commissionID uuid.UUID) (*domain.Commission, error) {
	return s.TransitionCommission(ctx, commissionID, domain.CommissionStatusCancelled)
}
