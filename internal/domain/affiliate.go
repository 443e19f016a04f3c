/**
 * @description
 * This file defines the affiliate domain model and the payloads used to
 * register and manage affiliate accounts. Affiliates are the promoter
 * accounts that earn commission on referred subscription sales.
 *
 * @notes
 * - Affiliates are never hard-deleted: their financial history (commissions,
 *   payments) must survive, so deactivation is a suspension flag instead.
 * - Referral codes are lowercase alphanumeric plus underscore, 3-24 chars.
 */

package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// referralCodePattern is the only accepted shape for a referral code.
var referralCodePattern = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

// Affiliate represents a promoter account. Maps to the `affiliates` table.
type Affiliate struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	ReferralCode      string    `json:"referral_code"`
	BankAccountNumber string    `json:"bank_account_number"`
	BankAccountName   string    `json:"bank_account_name"`
	Suspended         bool      `json:"suspended"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RegisterAffiliateInput is the payload for creating a new affiliate account.
// ReferralCode is optional; when empty a code is generated server-side.
type RegisterAffiliateInput struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	ReferralCode      string `json:"referral_code,omitempty"`
	BankAccountNumber string `json:"bank_account_number"`
	BankAccountName   string `json:"bank_account_name"`
}

// UpdatePayoutDestinationInput updates the bank account a payout is sent to.
type UpdatePayoutDestinationInput struct {
	BankAccountNumber string `json:"bank_account_number"`
	BankAccountName   string `json:"bank_account_name"`
}

// NormalizeEmail lower-cases and trims an email so uniqueness checks are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeReferralCode trims and lower-cases a user-supplied referral code.
func NormalizeReferralCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ValidReferralCode reports whether a (normalized) referral code is acceptable.
func ValidReferralCode(code string) bool {
	return referralCodePattern.MatchString(code)
}

// MaskAccountNumber hides all but the last four digits of a bank account
// number for display and payment records.
func MaskAccountNumber(accountNumber string) string {
	trimmed := strings.TrimSpace(accountNumber)
	if len(trimmed) <= 4 {
		return trimmed
	}
	return strings.Repeat("*", len(trimmed)-4) + trimmed[len(trimmed)-4:]
}
