/**
 * @description
 * The sale-event consumer. The payment-capture flow publishes a
 * `sale.payment.succeeded` event for every successful subscription payment;
 * this consumer resolves the referring affiliate and records the commission.
 *
 * @notes
 * - Malformed payloads are acknowledged and dropped: redelivery cannot fix
 *   them. Storage failures are nacked so the sale event is requeued and not
 *   lost financially.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/store"
	"github.com/shopspring/decimal"
)

// SaleEvent is the payload the payment flow publishes when a referred
// subscription payment succeeds.
type SaleEvent struct {
	AffiliateReferralCode string          `json:"affiliate_referral_code"`
	ReferredUserID        uuid.UUID       `json:"referred_user_id"`
	PlanTier              string          `json:"plan_tier"`
	GrossAmount           decimal.Decimal `json:"gross_amount"`
	VATRatePercent        decimal.Decimal `json:"vat_rate_percent"`
	PaymentType           string          `json:"payment_type"`
}

// SaleEventConsumer turns sale events into commission records.
type SaleEventConsumer struct {
	service *Service
}

// SaleEventConsumer returns the consumer bound to this service.
func (s *Service) SaleEventConsumer() *SaleEventConsumer {
	return &SaleEventConsumer{service: s}
}

// HandleMessage processes one delivery. The boolean return is the ack
// decision: true acknowledges, false requeues.
func (c *SaleEventConsumer) HandleMessage(body []byte) bool {
	var event SaleEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=warn component=sale_consumer msg=\"failed to unmarshal payload; dropping\" err=%v", err)
		return true
	}

	if event.AffiliateReferralCode == "" || event.ReferredUserID == uuid.Nil {
		log.Printf("level=warn component=sale_consumer msg=\"incomplete sale event; dropping\" referral_code=%q", event.AffiliateReferralCode)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := c.service.CreateCommission(ctx, CreateCommissionInput{
		ReferralCode:   event.AffiliateReferralCode,
		ReferredUserID: event.ReferredUserID,
		PlanTier:       domain.PlanTier(event.PlanTier),
		GrossAmount:    event.GrossAmount,
		VATRate:        event.VATRatePercent,
		PaymentType:    event.PaymentType,
	})
	if err != nil {
		// Validation and attribution failures are final; redelivery cannot
		// change the payload. Only infrastructure failures are requeued.
		switch {
		case errors.Is(err, ErrInvalidSaleAmount),
			errors.Is(err, ErrInvalidVATRate),
			errors.Is(err, ErrInvalidPaymentType),
			errors.Is(err, ErrAffiliateSuspended),
			errors.Is(err, store.ErrAffiliateNotFound):
			log.Printf("level=warn component=sale_consumer msg=\"sale event not attributable; dropping\" referral_code=%s err=%v", event.AffiliateReferralCode, err)
			return true
		default:
			log.Printf("level=error component=sale_consumer msg=\"commission insert failed; re-queuing\" referral_code=%s err=%v", event.AffiliateReferralCode, err)
			return false
		}
	}

	return true
}
