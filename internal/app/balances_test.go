package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/store"
	"github.com/shopspring/decimal"
)

type balanceRepoStub struct {
	store.Repository

	outstanding []domain.Commission
	all         []domain.Commission
}

func (s *balanceRepoStub) FindOutstandingCommissions(ctx context.Context, affiliateID uuid.UUID) ([]domain.Commission, error) {
	return s.outstanding, nil
}

func (s *balanceRepoStub) FindCommissionsByAffiliateID(ctx context.Context, affiliateID uuid.UUID) ([]domain.Commission, error) {
	return s.all, nil
}

func commissionAt(amount string, age time.Duration, status string) domain.Commission {
	return domain.Commission{
		ID:               uuid.New(),
		CommissionAmount: decimal.RequireFromString(amount),
		Status:           status,
		CreatedAt:        time.Now().UTC().Add(-age),
	}
}

func TestComputeBalancesPartitionsByHold(t *testing.T) {
	seasoned := commissionAt("100.00", 10*24*time.Hour, domain.CommissionStatusPending)
	held := commissionAt("40.00", 2*24*time.Hour, domain.CommissionStatusApproved)
	paid := commissionAt("60.00", 30*24*time.Hour, domain.CommissionStatusPaid)

	repo := &balanceRepoStub{
		outstanding: []domain.Commission{seasoned, held},
		all:         []domain.Commission{seasoned, held, paid},
	}
	service := NewService(repo, nil, "shoplane.events", "salt")

	snapshot, err := service.ComputeBalances(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !snapshot.Pending.Equal(decimal.RequireFromString("140.00")) {
		t.Fatalf("expected pending 140.00, got %s", snapshot.Pending)
	}
	if !snapshot.Withdrawable.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected withdrawable 100.00, got %s", snapshot.Withdrawable)
	}
	if snapshot.Withdrawable.GreaterThan(snapshot.Pending) {
		t.Fatal("withdrawable must never exceed pending")
	}
	if !snapshot.TotalEarned.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("expected total earned 200.00, got %s", snapshot.TotalEarned)
	}
	if !snapshot.MinPayoutAmount.Equal(domain.MinPayoutAmount) {
		t.Fatalf("expected policy minimum on snapshot, got %s", snapshot.MinPayoutAmount)
	}

	// Most recent outstanding sale is 2 days old, so the payout is due in 3.
	if snapshot.DaysUntilPayout == nil || *snapshot.DaysUntilPayout != 3 {
		t.Fatalf("expected 3 days until payout, got %v", snapshot.DaysUntilPayout)
	}
}

func TestComputeBalancesEmptyHistory(t *testing.T) {
	repo := &balanceRepoStub{}
	service := NewService(repo, nil, "shoplane.events", "salt")

	snapshot, err := service.ComputeBalances(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !snapshot.Pending.IsZero() || !snapshot.Withdrawable.IsZero() || !snapshot.TotalEarned.IsZero() {
		t.Fatal("expected zeroed balances for an affiliate with no history")
	}
	if snapshot.NextPayoutDate != nil || snapshot.DaysUntilPayout != nil {
		t.Fatal("expected no payout schedule with no outstanding sales")
	}
}
