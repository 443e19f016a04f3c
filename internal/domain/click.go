/**
 * @description
 * This file defines the click domain model for the referral funnel. A click
 * is a single referral-link visit; the ledger stores a salted hash of the
 * visitor's network address, never the raw address.
 */

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClickDedupWindow is the trailing window within which repeat visits from the
// same (affiliate, hashed address) pair count as one click.
const ClickDedupWindow = time.Hour

// Click represents one deduplicated referral-link visit. Maps to the
// `clicks` table.
type Click struct {
	ID          uuid.UUID `json:"id"`
	AffiliateID uuid.UUID `json:"affiliate_id"`
	VisitorHash string    `json:"visitor_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// HashVisitorAddress produces a deterministic salted hash of a visitor's
// network address. The salt is process-wide configuration, so the same
// address always hashes identically within a deployment.
func HashVisitorAddress(salt, rawAddress string) string {
	sum := sha256.Sum256([]byte(salt + "|" + strings.TrimSpace(rawAddress)))
	return hex.EncodeToString(sum[:])
}
