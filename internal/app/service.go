/**
 * @description
 * This file contains the core of the affiliate-service business logic. The
 * `Service` struct orchestrates the commission engine, coordinating between
 * the database repository and the message broker. This file holds the
 * service construction and the affiliate account operations (registration,
 * suspension, payout destination); the other operations live in sibling
 * files of this package.
 *
 * @dependencies
 * - context, errors, fmt, log: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Event publishing.
 */

package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/store"
	"github.com/shoplane/affiliate-service/pkg/rabbitmq"
)

var (
	ErrInvalidReferralCode     = errors.New("referral code must be 3-24 lowercase letters, digits, or underscores")
	ErrInvalidSaleAmount       = errors.New("sale amount must be positive")
	ErrInvalidVATRate          = errors.New("vat rate must be between 0 and 100")
	ErrInvalidPaymentType      = errors.New("unknown payment type")
	ErrAffiliateSuspended      = errors.New("affiliate account is suspended")
	ErrInvalidStateTransition  = errors.New("commission status transition not allowed")
	ErrMissingRegistrationData = errors.New("name and email are required")
	ErrMissingBankDestination  = errors.New("bank account number and holder name are required")
)

const generatedCodeLength = 8

// Service provides the business logic of the commission and payout engine.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
	eventExchange string
	clickSalt     string
}

// NewService creates a new affiliate service instance.
func NewService(repo store.Repository, producer rabbitmq.Publisher, eventExchange, clickSalt string) *Service {
	return &Service{
		repo:          repo,
		eventProducer: producer,
		eventExchange: eventExchange,
		clickSalt:     clickSalt,
	}
}

// RegisterAffiliate creates a new affiliate account. A user-chosen referral
// code is validated and collision-checked; when none is supplied a code is
// generated. Duplicate email or code surface as the specific store errors so
// registration failures always carry a reason.
func (s *Service) RegisterAffiliate(ctx context.Context, input domain.RegisterAffiliateInput) (*domain.Affiliate, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" || email == "" {
		return nil, ErrMissingRegistrationData
	}

	code := domain.NormalizeReferralCode(input.ReferralCode)
	if code != "" {
		if !domain.ValidReferralCode(code) {
			return nil, ErrInvalidReferralCode
		}
		taken, err := s.repo.ReferralCodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check referral code: %w", err)
		}
		if taken {
			return nil, store.ErrCodeTaken
		}
	} else {
		generated, err := s.generateReferralCode(ctx)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	affiliate := &domain.Affiliate{
		ID:                uuid.New(),
		Name:              name,
		Email:             email,
		ReferralCode:      code,
		BankAccountNumber: strings.TrimSpace(input.BankAccountNumber),
		BankAccountName:   strings.TrimSpace(input.BankAccountName),
	}
	if err := s.repo.CreateAffiliate(ctx, affiliate); err != nil {
		return nil, err
	}

	log.Printf("level=info component=app msg=\"affiliate registered\" affiliate_id=%s referral_code=%s", affiliate.ID, affiliate.ReferralCode)
	return affiliate, nil
}

// generateReferralCode produces a random lowercase alphanumeric code,
// retrying on the unlikely collision.
func (s *Service) generateReferralCode(ctx context.Context) (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	for attempt := 0; attempt < 5; attempt++ {
		buf := make([]byte, generatedCodeLength)
		for i := range buf {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
			if err != nil {
				return "", fmt.Errorf("failed to generate referral code: %w", err)
			}
			buf[i] = alphabet[n.Int64()]
		}
		code := string(buf)

		taken, err := s.repo.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", errors.New("failed to generate a unique referral code")
}

// GetAffiliate retrieves one affiliate account.
func (s *Service) GetAffiliate(ctx context.Context, affiliateID uuid.UUID) (*domain.Affiliate, error) {
	return s.repo.FindAffiliateByID(ctx, affiliateID)
}

// SetAffiliateSuspended toggles an affiliate's suspension flag. Suspension
// stops click attribution and new commissions; the financial history stays.
func (s *Service) SetAffiliateSuspended(ctx context.Context, affiliateID uuid.UUID, suspended bool) error {
	if err := s.repo.SetAffiliateSuspended(ctx, affiliateID, suspended); err != nil {
		return err
	}
	log.Printf("level=info component=app msg=\"affiliate suspension updated\" affiliate_id=%s suspended=%t", affiliateID, suspended)
	return nil
}

// UpdatePayoutDestination replaces the bank account future payouts are sent to.
func (s *Service) UpdatePayoutDestination(ctx context.Context, affiliateID uuid.UUID, input domain.UpdatePayoutDestinationInput) error {
	number := strings.TrimSpace(input.BankAccountNumber)
	name := strings.TrimSpace(input.BankAccountName)
	if number == "" || name == "" {
		return ErrMissingBankDestination
	}
	return s.repo.UpdateAffiliatePayoutDestination(ctx, affiliateID, number, name)
}
