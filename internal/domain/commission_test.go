package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeCommission(t *testing.T) {
	tests := []struct {
		name           string
		gross          string
		tier           PlanTier
		vat            string
		wantBase       string
		wantRate       string
		wantCommission string
	}{
		{
			name:           "monthly tier with vat",
			gross:          "1000",
			tier:           PlanTierMonthly,
			vat:            "20",
			wantBase:       "833.33",
			wantRate:       "10",
			wantCommission: "83.33",
		},
		{
			name:           "mid tier with vat",
			gross:          "1000",
			tier:           PlanTierMid,
			vat:            "20",
			wantBase:       "833.33",
			wantRate:       "15",
			wantCommission: "125",
		},
		{
			name:           "yearly tier with vat",
			gross:          "1000",
			tier:           PlanTierYearly,
			vat:            "20",
			wantBase:       "833.33",
			wantRate:       "20",
			wantCommission: "166.67",
		},
		{
			name:           "zero vat keeps gross as base",
			gross:          "500",
			tier:           PlanTierMonthly,
			vat:            "0",
			wantBase:       "500",
			wantRate:       "10",
			wantCommission: "50",
		},
		{
			name:           "unknown tier falls back to monthly rate",
			gross:          "200",
			tier:           PlanTier("lifetime"),
			vat:            "0",
			wantBase:       "200",
			wantRate:       "10",
			wantCommission: "20",
		},
		{
			name:           "fractional gross rounds at each step",
			gross:          "99.99",
			tier:           PlanTierYearly,
			vat:            "19",
			wantBase:       "84.03",
			wantRate:       "20",
			wantCommission: "16.81",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gross := decimal.RequireFromString(tt.gross)
			vat := decimal.RequireFromString(tt.vat)

			got := ComputeCommission(gross, tt.tier, vat)

			if !got.BaseAmount.Equal(decimal.RequireFromString(tt.wantBase)) {
				t.Fatalf("expected base=%s, got %s", tt.wantBase, got.BaseAmount)
			}
			if !got.RatePercent.Equal(decimal.RequireFromString(tt.wantRate)) {
				t.Fatalf("expected rate=%s, got %s", tt.wantRate, got.RatePercent)
			}
			if !got.CommissionAmount.Equal(decimal.RequireFromString(tt.wantCommission)) {
				t.Fatalf("expected commission=%s, got %s", tt.wantCommission, got.CommissionAmount)
			}
		})
	}
}

func TestValidCommissionTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{CommissionStatusPending, CommissionStatusApproved, true},
		{CommissionStatusPending, CommissionStatusPaid, true},
		{CommissionStatusPending, CommissionStatusCancelled, true},
		{CommissionStatusApproved, CommissionStatusPaid, true},
		{CommissionStatusApproved, CommissionStatusCancelled, true},
		{CommissionStatusApproved, CommissionStatusPending, false},
		{CommissionStatusPaid, CommissionStatusApproved, false},
		{CommissionStatusPaid, CommissionStatusCancelled, false},
		{CommissionStatusCancelled, CommissionStatusPending, false},
		{CommissionStatusCancelled, CommissionStatusPaid, false},
	}

	for _, tt := range tests {
		if got := ValidCommissionTransition(tt.from, tt.to); got != tt.want {
			t.Fatalf("ValidCommissionTransition(%s, %s) = %t, want %t", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestValidPlanTier(t *testing.T) {
	for _, tier := range []PlanTier{PlanTierMonthly, PlanTierMid, PlanTierYearly} {
		if !ValidPlanTier(tier) {
			t.Fatalf("expected %s to be a known tier", tier)
		}
	}
	if ValidPlanTier(PlanTier("lifetime")) {
		t.Fatal("expected unknown tier to be rejected")
	}
}

func TestCommissionTerminal(t *testing.T) {
	if CommissionTerminal(CommissionStatusPending) || CommissionTerminal(CommissionStatusApproved) {
		t.Fatal("non-terminal statuses reported as terminal")
	}
	if !CommissionTerminal(CommissionStatusPaid) || !CommissionTerminal(CommissionStatusCancelled) {
		t.Fatal("terminal statuses reported as non-terminal")
	}
}
