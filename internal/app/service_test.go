package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/store"
)

type registerRepoStub struct {
	store.Repository

	takenCodes map[string]bool
	createErr  error

	created *domain.Affiliate
}

func (s *registerRepoStub) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	return s.takenCodes[code], nil
}

func (s *registerRepoStub) CreateAffiliate(ctx context.Context, affiliate *domain.Affiliate) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = affiliate
	return nil
}

func TestRegisterAffiliateWithChosenCode(t *testing.T) {
	repo := &registerRepoStub{}
	service := NewService(repo, nil, "shoplane.events", "salt")

	affiliate, err := service.RegisterAffiliate(context.Background(), domain.RegisterAffiliateInput{
		Name:         "Jane Seller",
		Email:        "  Jane@Example.COM ",
		ReferralCode: "Jane_Codes",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if affiliate.Email != "jane@example.com" {
		t.Fatalf("expected normalized email, got %q", affiliate.Email)
	}
	if affiliate.ReferralCode != "jane_codes" {
		t.Fatalf("expected normalized referral code, got %q", affiliate.ReferralCode)
	}
	if repo.created == nil {
		t.Fatal("expected affiliate to be persisted")
	}
}

func TestRegisterAffiliateGeneratesCode(t *testing.T) {
	repo := &registerRepoStub{}
	service := NewService(repo, nil, "shoplane.events", "salt")

	affiliate, err := service.RegisterAffiliate(context.Background(), domain.RegisterAffiliateInput{
		Name:  "Jane Seller",
		Email: "jane@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(affiliate.ReferralCode) != generatedCodeLength {
		t.Fatalf("expected generated code of length %d, got %q", generatedCodeLength, affiliate.ReferralCode)
	}
	if !domain.ValidReferralCode(affiliate.ReferralCode) {
		t.Fatalf("generated code %q is not a valid referral code", affiliate.ReferralCode)
	}
}

func TestRegisterAffiliateRejectsTakenCode(t *testing.T) {
	repo := &registerRepoStub{takenCodes: map[string]bool{"creator_1": true}}
	service := NewService(repo, nil, "shoplane.events", "salt")

	_, err := service.RegisterAffiliate(context.Background(), domain.RegisterAffiliateInput{
		Name:         "Jane Seller",
		Email:        "jane@example.com",
		ReferralCode: "creator_1",
	})
	if !errors.Is(err, store.ErrCodeTaken) {
		t.Fatalf("expected ErrCodeTaken, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("expected no write for a taken code")
	}
}

func TestRegisterAffiliateValidation(t *testing.T) {
	repo := &registerRepoStub{}
	service := NewService(repo, nil, "shoplane.events", "salt")

	if _, err := service.RegisterAffiliate(context.Background(), domain.RegisterAffiliateInput{Email: "jane@example.com"}); !errors.Is(err, ErrMissingRegistrationData) {
		t.Fatalf("expected ErrMissingRegistrationData for missing name, got %v", err)
	}
	if _, err := service.RegisterAffiliate(context.Background(), domain.RegisterAffiliateInput{
		Name:         "Jane",
		Email:        "jane@example.com",
		ReferralCode: "Bad-Code!",
	}); !errors.Is(err, ErrInvalidReferralCode) {
		t.Fatalf("expected ErrInvalidReferralCode, got %v", err)
	}
}

type destinationRepoStub struct {
	store.Repository

	number string
	name   string
}

func (s *destinationRepoStub) UpdateAffiliatePayoutDestination(ctx context.Context, affiliateID uuid.UUID, accountNumber, accountName string) error {
	s.number = accountNumber
	s.name = accountName
	return nil
}

func TestUpdatePayoutDestination(t *testing.T) {
	repo := &destinationRepoStub{}
	service := NewService(repo, nil, "shoplane.events", "salt")

	err := service.UpdatePayoutDestination(context.Background(), uuid.New(), domain.UpdatePayoutDestinationInput{
		BankAccountNumber: " 0123456789 ",
		BankAccountName:   "Jane Seller",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.number != "0123456789" || repo.name != "Jane Seller" {
		t.Fatalf("expected trimmed destination, got %q / %q", repo.number, repo.name)
	}

	err = service.UpdatePayoutDestination(context.Background(), uuid.New(), domain.UpdatePayoutDestinationInput{})
	if !errors.Is(err, ErrMissingBankDestination) {
		t.Fatalf("expected ErrMissingBankDestination, got %v", err)
	}
}
