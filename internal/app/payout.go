/**
 * @description
 * The payout processor: the only mutating multi-record operation in the
 * engine. It settles every eligible commission for one affiliate into a
 * single payment batch inside one database transaction, then publishes an
 * event for downstream consumers.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/pkg/rabbitmq"
)

// Payout settles all pending and approved commissions for the affiliate into
// one payment. With nothing eligible it returns store.ErrNothingToPay, a
// normal outcome and the mechanism that makes re-invocation safe: a second
// call finds the prior batch already paid and no-ops.
func (s *Service) Payout(ctx context.Context, affiliateID uuid.UUID) (*domain.PayoutResult, error) {
	affiliate, err := s.repo.FindAffiliateByID(ctx, affiliateID)
	if err != nil {
		return nil, err
	}

	payment, count, err := s.repo.ExecutePayout(ctx, affiliate)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=app msg=\"payout completed\" affiliate_id=%s payment_id=%s amount=%s commissions=%d",
		affiliate.ID, payment.ID, payment.Amount.StringFixed(2), count)

	if s.eventProducer != nil {
		event := rabbitmq.PayoutCompletedEvent{
			PaymentID:       payment.ID,
			AffiliateID:     affiliate.ID,
			Amount:          payment.Amount,
			CommissionCount: count,
			Timestamp:       time.Now().UTC(),
		}
		if err := s.eventProducer.Publish(ctx, s.eventExchange, "affiliate.payout.completed", event); err != nil {
			log.Printf("level=warn component=app msg=\"payout event publish failed\" payment_id=%s err=%v", payment.ID, err)
		}
	}

	return &domain.PayoutResult{
		PaymentID:       payment.ID,
		Amount:          payment.Amount,
		CommissionCount: count,
	}, nil
}

// GetPayments retrieves the payout history for an affiliate.
func (s *Service) GetPayments(ctx context.Context, affiliateID uuid.UUID) ([]domain.Payment, error) {
	return s.repo.FindPaymentsByAffiliateID(ctx, affiliateID)
}

// ReversePayment flags a payment as reversed after a failed or recalled bank
// transfer. The settled commissions stay paid; reconciling them is a manual
// operator decision, not an automatic rollback.
func (s *Service) ReversePayment(ctx context.Context, paymentID uuid.UUID) error {
	if err := s.repo.UpdatePaymentStatus(ctx, paymentID, domain.PaymentStatusReversed); err != nil {
		return err
	}
	log.Printf("level=info component=app msg=\"payment reversed\" payment_id=%s", paymentID)
	return nil
}
