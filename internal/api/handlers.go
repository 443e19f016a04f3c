/**
 * @description
 * This file contains the HTTP handlers for the affiliate service's API
 * endpoints. Handlers parse incoming requests, call the application service,
 * and map service errors onto HTTP status codes. They act as the bridge
 * between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shoplane/affiliate-service/internal/app"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/store"
)

// AffiliateHandlers holds the application service that handlers will use.
type AffiliateHandlers struct {
	service     *app.Service
	rateLimiter app.ClickRateLimiter
	clickLimit  int
}

// NewAffiliateHandlers creates a new instance of AffiliateHandlers.
func NewAffiliateHandlers(service *app.Service, rateLimiter app.ClickRateLimiter, clickLimit int) *AffiliateHandlers {
	return &AffiliateHandlers{
		service:     service,
		rateLimiter: rateLimiter,
		clickLimit:  clickLimit,
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *AffiliateHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *AffiliateHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// affiliateIDFromURL parses the {affiliateID} path parameter. It writes the
// error response itself so callers can return immediately on failure.
func (h *AffiliateHandlers) affiliateIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "affiliateID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid affiliate ID format.")
		return uuid.Nil, false
	}
	return id, true
}

// TrackClickHandler records a referral link click. The endpoint is public, so
// it is rate limited per caller address and never discloses whether the
// referral code exists.
func (h *AffiliateHandlers) TrackClickHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReferralCode string `json:"referral_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	addr := clientAddress(r)
	if h.rateLimiter != nil {
		count, retryAfter, err := h.rateLimiter.ConsumeRateLimit(r.Context(), addr, h.clickLimit, time.Minute)
		if err != nil {
			// Fail open: a broken limiter must not take click tracking down.
			log.Printf("level=warn component=api msg=\"click rate limit check failed\" err=%v", err)
		} else if h.clickLimit > 0 && count > h.clickLimit {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.writeError(w, http.StatusTooManyRequests, "Too many requests.")
			return
		}
	}

	counted, err := h.service.RecordClick(r.Context(), req.ReferralCode, addr)
	if err != nil {
		if errors.Is(err, store.ErrAffiliateNotFound) {
			// Unknown codes still return 202 so the endpoint cannot be used
			// to probe for valid referral codes.
			h.writeJSON(w, http.StatusAccepted, map[string]bool{"counted": false})
			return
		}
		log.Printf("level=error component=api msg=\"failed to record click\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to record click.")
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]bool{"counted": counted})
}

// RegisterAffiliateHandler creates a new affiliate account.
func (h *AffiliateHandlers) RegisterAffiliateHandler(w http.ResponseWriter, r *http.Request) {
	var input domain.RegisterAffiliateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	affiliate, err := h.service.RegisterAffiliate(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingRegistrationData), errors.Is(err, app.ErrInvalidReferralCode):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrEmailTaken), errors.Is(err, store.ErrCodeTaken):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			log.Printf("level=error component=api msg=\"failed to register affiliate\" err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Unable to register affiliate.")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, affiliate)
}

// GetAffiliateHandler returns one affiliate account.
func (h *AffiliateHandlers) GetAffiliateHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	affiliate, err := h.service.GetAffiliate(r.Context(), affiliateID)
	if err != nil {
		if errors.Is(err, store.ErrAffiliateNotFound) {
			h.writeError(w, http.StatusNotFound, "Affiliate not found.")
			return
		}
		log.Printf("level=error component=api msg=\"failed to fetch affiliate\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch affiliate.")
		return
	}

	h.writeJSON(w, http.StatusOK, affiliate)
}

// SuspendAffiliateHandler suspends an affiliate account, stopping click
// attribution and new commissions.
func (h *AffiliateHandlers) SuspendAffiliateHandler(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, true)
}

// ReactivateAffiliateHandler lifts a suspension.
func (h *AffiliateHandlers) ReactivateAffiliateHandler(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, false)
}

func (h *AffiliateHandlers) setSuspended(w http.ResponseWriter, r *http.Request, suspended bool) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.service.SetAffiliateSuspended(r.Context(), affiliateID, suspended); err != nil {
		if errors.Is(err, store.ErrAffiliateNotFound) {
			h.writeError(w, http.StatusNotFound, "Affiliate not found.")
			return
		}
		log.Printf("level=error component=api msg=\"failed to update suspension\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to update affiliate.")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"suspended": suspended})
}

// UpdatePayoutDestinationHandler replaces the bank account payouts are sent to.
func (h *AffiliateHandlers) UpdatePayoutDestinationHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	var input domain.UpdatePayoutDestinationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.service.UpdatePayoutDestination(r.Context(), affiliateID, input); err != nil {
		switch {
		case errors.Is(err, store.ErrAffiliateNotFound):
			h.writeError(w, http.StatusNotFound, "Affiliate not found.")
		case errors.Is(err, app.ErrMissingBankDestination):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("level=error component=api msg=\"failed to update payout destination\" affiliate_id=%s err=%v", affiliateID, err)
			h.writeError(w, http.StatusInternalServerError, "Unable to update payout destination.")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// CreateCommissionHandler prices a referred sale and records a pending
// commission. Used when sales are pushed over HTTP rather than the event bus.
func (h *AffiliateHandlers) CreateCommissionHandler(w http.ResponseWriter, r *http.Request) {
	var input app.CreateCommissionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	commission, err := h.service.CreateCommission(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidReferralCode),
			errors.Is(err, app.ErrInvalidSaleAmount),
			errors.Is(err, app.ErrInvalidVATRate),
			errors.Is(err, app.ErrInvalidPaymentType):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrAffiliateNotFound):
			h.writeError(w, http.StatusNotFound, "Affiliate not found.")
		case errors.Is(err, app.ErrAffiliateSuspended):
			h.writeError(w, http.StatusForbidden, err.Error())
		default:
			log.Printf("level=error component=api msg=\"failed to create commission\" err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Unable to create commission.")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, commission)
}

// ApproveCommissionHandler confirms a pending commission after review.
func (h *AffiliateHandlers) ApproveCommissionHandler(w http.ResponseWriter, r *http.Request) {
	h.transitionCommission(w, r, domain.CommissionStatusApproved)
}

// CancelCommissionHandler voids a commission, for example after a refund.
func (h *AffiliateHandlers) CancelCommissionHandler(w http.ResponseWriter, r *http.Request) {
	h.transitionCommission(w, r, domain.CommissionStatusCancelled)
}

func (h *AffiliateHandlers) transitionCommission(w http.ResponseWriter, r *http.Request, toStatus string) {
	commissionID, err := uuid.Parse(chi.URLParam(r, "commissionID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid commission ID format.")
		return
	}

	commission, err := h.service.TransitionCommission(r.Context(), commissionID, toStatus)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCommissionNotFound):
			h.writeError(w, http.StatusNotFound, "Commission not found.")
		case errors.Is(err, app.ErrInvalidStateTransition), errors.Is(err, store.ErrStatusConflict):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			log.Printf("level=error component=api msg=\"failed to transition commission\" commission_id=%s err=%v", commissionID, err)
			h.writeError(w, http.StatusInternalServerError, "Unable to update commission.")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, commission)
}

// PayoutHandler settles every outstanding commission for one affiliate into a
// single payment.
func (h *AffiliateHandlers) PayoutHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	result, err := h.service.Payout(r.Context(), affiliateID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAffiliateNotFound):
			h.writeError(w, http.StatusNotFound, "Affiliate not found.")
		case errors.Is(err, store.ErrNothingToPay):
			h.writeError(w, http.StatusConflict, "No outstanding commissions to pay.")
		case errors.Is(err, store.ErrStatusConflict):
			h.writeError(w, http.StatusConflict, "Commissions changed during payout. Please retry.")
		default:
			log.Printf("level=error component=api msg=\"payout failed\" affiliate_id=%s err=%v", affiliateID, err)
			h.writeError(w, http.StatusInternalServerError, "Unable to process payout.")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// ListPaymentsHandler returns the affiliate's payout history, newest first.
func (h *AffiliateHandlers) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	payments, err := h.service.GetPayments(r.Context(), affiliateID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to list payments\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list payments.")
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}

	h.writeJSON(w, http.StatusOK, payments)
}

// ReversePaymentHandler flags a payout as reversed after a failed or
// recalled bank transfer.
func (h *AffiliateHandlers) ReversePaymentHandler(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payment ID format.")
		return
	}

	if err := h.service.ReversePayment(r.Context(), paymentID); err != nil {
		if errors.Is(err, store.ErrPaymentNotFound) {
			h.writeError(w, http.StatusNotFound, "Payment not found.")
			return
		}
		log.Printf("level=error component=api msg=\"failed to reverse payment\" payment_id=%s err=%v", paymentID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to reverse payment.")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reversed"})
}

// GetBalancesHandler returns the affiliate's balance snapshot, including the
// next scheduled payout date.
func (h *AffiliateHandlers) GetBalancesHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.ComputeBalances(r.Context(), affiliateID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to compute balances\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to compute balances.")
		return
	}

	h.writeJSON(w, http.StatusOK, snapshot)
}
