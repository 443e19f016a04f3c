package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/store"
	"github.com/shopspring/decimal"
)

type autoPayoutRepoStub struct {
	store.Repository

	candidates  []domain.Affiliate
	outstanding map[uuid.UUID][]domain.Commission

	payouts []uuid.UUID
}

func (s *autoPayoutRepoStub) FindAffiliatesWithOutstandingCommissions(ctx context.Context) ([]domain.Affiliate, error) {
	return s.candidates, nil
}

func (s *autoPayoutRepoStub) FindOutstandingCommissions(ctx context.Context, affiliateID uuid.UUID) ([]domain.Commission, error) {
	return s.outstanding[affiliateID], nil
}

func (s *autoPayoutRepoStub) FindCommissionsByAffiliateID(ctx context.Context, affiliateID uuid.UUID) ([]domain.Commission, error) {
	return s.outstanding[affiliateID], nil
}

func (s *autoPayoutRepoStub) FindAffiliateByID(ctx context.Context, id uuid.UUID) (*domain.Affiliate, error) {
	for i := range s.candidates {
		if s.candidates[i].ID == id {
			return &s.candidates[i], nil
		}
	}
	return nil, store.ErrAffiliateNotFound
}

func (s *autoPayoutRepoStub) ExecutePayout(ctx context.Context, affiliate *domain.Affiliate) (*domain.Payment, int, error) {
	s.payouts = append(s.payouts, affiliate.ID)
	total := decimal.Zero
	for _, c := range s.outstanding[affiliate.ID] {
		total = total.Add(c.CommissionAmount)
	}
	return &domain.Payment{ID: uuid.New(), AffiliateID: affiliate.ID, Amount: total}, len(s.outstanding[affiliate.ID]), nil
}

func newTestJobs(repo store.Repository) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(repo, nil, "shoplane.events", "salt")
	return NewJobs(service, repo, logger)
}

func TestRunAutoPayoutsSettlesEligibleAffiliates(t *testing.T) {
	eligible := domain.Affiliate{ID: uuid.New()}
	belowMinimum := domain.Affiliate{ID: uuid.New()}
	stillHeld := domain.Affiliate{ID: uuid.New()}

	old := time.Now().UTC().AddDate(0, 0, -10)
	fresh := time.Now().UTC().AddDate(0, 0, -1)

	repo := &autoPayoutRepoStub{
		candidates: []domain.Affiliate{eligible, belowMinimum, stillHeld},
		outstanding: map[uuid.UUID][]domain.Commission{
			eligible.ID: {
				{CommissionAmount: decimal.NewFromInt(1500), Status: domain.CommissionStatusPending, CreatedAt: old},
			},
			belowMinimum.ID: {
				{CommissionAmount: decimal.NewFromInt(200), Status: domain.CommissionStatusPending, CreatedAt: old},
			},
			stillHeld.ID: {
				// Large enough, but the sale is too recent: withdrawable is
				// zero and the payout date has not arrived.
				{CommissionAmount: decimal.NewFromInt(5000), Status: domain.CommissionStatusPending, CreatedAt: fresh},
			},
		},
	}

	jobs := newTestJobs(repo)
	jobs.RunAutoPayouts()

	if len(repo.payouts) != 1 {
		t.Fatalf("expected exactly one payout, got %d", len(repo.payouts))
	}
	if repo.payouts[0] != eligible.ID {
		t.Fatal("expected only the eligible affiliate to be paid")
	}
}

func TestRunAutoPayoutsNoCandidates(t *testing.T) {
	repo := &autoPayoutRepoStub{}
	jobs := newTestJobs(repo)

	jobs.RunAutoPayouts()

	if len(repo.payouts) != 0 {
		t.Fatalf("expected no payouts, got %d", len(repo.payouts))
	}
}
