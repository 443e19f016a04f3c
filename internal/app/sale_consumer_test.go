package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/store"
)

type saleConsumerRepoStub struct {
	store.Repository

	affiliate *domain.Affiliate
	findErr   error
	createErr error

	created *domain.Commission
}

func (s *saleConsumerRepoStub) FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.affiliate, nil
}

func (s *saleConsumerRepoStub) CreateCommission(ctx context.Context, commission *domain.Commission) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = commission
	return nil
}

func saleEventBody(referralCode string) []byte {
	return []byte(`{
		"affiliate_referral_code": "` + referralCode + `",
		"referred_user_id": "` + uuid.NewString() + `",
		"plan_tier": "yearly",
		"gross_amount": "1000",
		"vat_rate_percent": "20",
		"payment_type": "first"
	}`)
}

func TestSaleConsumerRecordsCommission(t *testing.T) {
	repo := &saleConsumerRepoStub{affiliate: &domain.Affiliate{ID: uuid.New(), ReferralCode: "creator_1"}}
	service := NewService(repo, nil, "shoplane.events", "salt")
	consumer := service.SaleEventConsumer()

	if ack := consumer.HandleMessage(saleEventBody("creator_1")); !ack {
		t.Fatal("expected successful processing to ack")
	}
	if repo.created == nil {
		t.Fatal("expected a commission to be recorded")
	}
	if repo.created.Status != domain.CommissionStatusPending {
		t.Fatalf("expected pending commission, got %s", repo.created.Status)
	}
}

func TestSaleConsumerDropsMalformedPayload(t *testing.T) {
	repo := &saleConsumerRepoStub{}
	service := NewService(repo, nil, "shoplane.events", "salt")
	consumer := service.SaleEventConsumer()

	if ack := consumer.HandleMessage([]byte("{not json")); !ack {
		t.Fatal("expected malformed payload to be dropped, not requeued")
	}
	if ack := consumer.HandleMessage([]byte(`{"plan_tier":"yearly"}`)); !ack {
		t.Fatal("expected incomplete payload to be dropped")
	}
	if repo.created != nil {
		t.Fatal("expected no commission from bad payloads")
	}
}

func TestSaleConsumerDropsUnattributableSale(t *testing.T) {
	repo := &saleConsumerRepoStub{findErr: store.ErrAffiliateNotFound}
	service := NewService(repo, nil, "shoplane.events", "salt")
	consumer := service.SaleEventConsumer()

	if ack := consumer.HandleMessage(saleEventBody("nobody")); !ack {
		t.Fatal("expected sale with unknown referral code to be dropped")
	}
}

func TestSaleConsumerRequeuesOnStorageFailure(t *testing.T) {
	repo := &saleConsumerRepoStub{
		affiliate: &domain.Affiliate{ID: uuid.New(), ReferralCode: "creator_1"},
		createErr: errors.New("connection reset"),
	}
	service := NewService(repo, nil, "shoplane.events", "salt")
	consumer := service.SaleEventConsumer()

	if ack := consumer.HandleMessage(saleEventBody("creator_1")); ack {
		t.Fatal("expected storage failure to requeue the sale event")
	}
}
