package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/store"
	"github.com/shopspring/decimal"
)

type publishedEvent struct {
	exchange   string
	routingKey string
	body       interface{}
}

type publisherStub struct {
	events     []publishedEvent
	publishErr error
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.events = append(p.events, publishedEvent{exchange: exchange, routingKey: routingKey, body: body})
	return p.publishErr
}

func (p *publisherStub) Close() {}

type commissionRepoStub struct {
	store.Repository

	affiliate  *domain.Affiliate
	findErr    error
	commission *domain.Commission
	createErr  error

	created      *domain.Commission
	updatedFrom  string
	updatedTo    string
	updateCalled bool
}

func (s *commissionRepoStub) FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.affiliate, nil
}

func (s *commissionRepoStub) CreateCommission(ctx context.Context, commission *domain.Commission) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = commission
	return nil
}

func (s *commissionRepoStub) FindCommissionByID(ctx context.Context, id uuid.UUID) (*domain.Commission, error) {
	if s.commission == nil {
		return nil, store.ErrCommissionNotFound
	}
	return s.commission, nil
}

func (s *commissionRepoStub) UpdateCommissionStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) error {
	s.updateCalled = true
	s.updatedFrom = fromStatus
	s.updatedTo = toStatus
	s.commission.Status = toStatus
	return nil
}

func validCommissionInput() CreateCommissionInput {
	return CreateCommissionInput{
		ReferralCode:   "creator_1",
		ReferredUserID: uuid.New(),
		PlanTier:       domain.PlanTierYearly,
		GrossAmount:    decimal.NewFromInt(1000),
		VATRate:        decimal.NewFromInt(20),
		PaymentType:    domain.PaymentTypeFirst,
	}
}

func TestCreateCommissionValidation(t *testing.T) {
	repo := &commissionRepoStub{affiliate: &domain.Affiliate{ID: uuid.New()}}
	service := NewService(repo, nil, "shoplane.events", "salt")

	tests := []struct {
		name    string
		mutate  func(*CreateCommissionInput)
		wantErr error
	}{
		{"zero amount", func(in *CreateCommissionInput) { in.GrossAmount = decimal.Zero }, ErrInvalidSaleAmount},
		{"negative amount", func(in *CreateCommissionInput) { in.GrossAmount = decimal.NewFromInt(-5) }, ErrInvalidSaleAmount},
		{"negative vat", func(in *CreateCommissionInput) { in.VATRate = decimal.NewFromInt(-1) }, ErrInvalidVATRate},
		{"vat above 100", func(in *CreateCommissionInput) { in.VATRate = decimal.NewFromInt(101) }, ErrInvalidVATRate},
		{"unknown payment type", func(in *CreateCommissionInput) { in.PaymentType = "chargeback" }, ErrInvalidPaymentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCommissionInput()
			tt.mutate(&input)

			if _, err := service.CreateCommission(context.Background(), input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if repo.created != nil {
				t.Fatal("expected no write on validation failure")
			}
		})
	}
}

func TestCreateCommissionInsertsPendingRecord(t *testing.T) {
	affiliate := &domain.Affiliate{ID: uuid.New(), ReferralCode: "creator_1"}
	repo := &commissionRepoStub{affiliate: affiliate}
	producer := &publisherStub{}
	service := NewService(repo, producer, "shoplane.events", "salt")

	commission, err := service.CreateCommission(context.Background(), validCommissionInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if commission.Status != domain.CommissionStatusPending {
		t.Fatalf("expected pending status, got %s", commission.Status)
	}
	if commission.AffiliateID != affiliate.ID {
		t.Fatal("commission attributed to wrong affiliate")
	}
	if !commission.BaseAmount.Equal(decimal.RequireFromString("833.33")) {
		t.Fatalf("expected base 833.33, got %s", commission.BaseAmount)
	}
	if !commission.CommissionAmount.Equal(decimal.RequireFromString("166.67")) {
		t.Fatalf("expected commission 166.67, got %s", commission.CommissionAmount)
	}
	if repo.created == nil {
		t.Fatal("expected commission to be persisted")
	}

	if len(producer.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(producer.events))
	}
	if producer.events[0].routingKey != "affiliate.commission.created" {
		t.Fatalf("unexpected routing key: %s", producer.events[0].routingKey)
	}
}

func TestCreateCommissionPublishFailureDoesNotFail(t *testing.T) {
	repo := &commissionRepoStub{affiliate: &domain.Affiliate{ID: uuid.New()}}
	producer := &publisherStub{publishErr: errors.New("broker down")}
	service := NewService(repo, producer, "shoplane.events", "salt")

	if _, err := service.CreateCommission(context.Background(), validCommissionInput()); err != nil {
		t.Fatalf("expected persisted commission to survive publish failure, got %v", err)
	}
}

func TestCreateCommissionSuspendedAffiliate(t *testing.T) {
	repo := &commissionRepoStub{affiliate: &domain.Affiliate{ID: uuid.New(), Suspended: true}}
	service := NewService(repo, nil, "shoplane.events", "salt")

	if _, err := service.CreateCommission(context.Background(), validCommissionInput()); !errors.Is(err, ErrAffiliateSuspended) {
		t.Fatalf("expected ErrAffiliateSuspended, got %v", err)
	}
}

func TestTransitionCommissionGuardsTerminalStates(t *testing.T) {
	repo := &commissionRepoStub{
		commission: &domain.Commission{ID: uuid.New(), Status: domain.CommissionStatusPaid},
	}
	service := NewService(repo, nil, "shoplane.events", "salt")

	_, err := service.TransitionCommission(context.Background(), repo.commission.ID, domain.CommissionStatusCancelled)
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if repo.updateCalled {
		t.Fatal("expected no database update for an illegal transition")
	}
}

func TestTransitionCommissionApprovesPending(t *testing.T) {
	repo := &commissionRepoStub{
		commission: &domain.Commission{ID: uuid.New(), Status: domain.CommissionStatusPending},
	}
	service := NewService(repo, nil, "shoplane.events", "salt")

	commission, err := service.ApproveCommission(context.Background(), repo.commission.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if commission.Status != domain.CommissionStatusApproved {
		t.Fatalf("expected approved, got %s", commission.Status)
	}
	if repo.updatedFrom != domain.CommissionStatusPending || repo.updatedTo != domain.CommissionStatusApproved {
		t.Fatalf("expected guarded update pending -> approved, got %s -> %s", repo.updatedFrom, repo.updatedTo)
	}
}
