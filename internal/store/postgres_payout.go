/**
 * @description
 * This file implements the payout batch transaction and the payment read
 * paths. The payout is the only mutating multi-record operation in the
 * service, so it runs as one database transaction with row-level locks on
 * the eligible commissions.
 */

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shopspring/decimal"
)

// FindAffiliatesWithOutstandingCommissions returns the non-suspended
// affiliates that currently hold at least one pending or approved
// commission. This is the candidate set for the scheduled payout run.
func (r *PostgresRepository) FindAffiliatesWithOutstandingCommissions(ctx context.Context) ([]domain.Affiliate, error) {
	query := `
		SELECT DISTINCT a.id, a.name, a.email, a.referral_code, a.bank_account_number, a.bank_account_name, a.suspended, a.created_at, a.updated_at
		FROM affiliates a
		JOIN commissions c ON c.affiliate_id = a.id
		WHERE a.suspended = FALSE AND c.status IN ('pending', 'approved')
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var affiliates []domain.Affiliate
	for rows.Next() {
		var a domain.Affiliate
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.ReferralCode, &a.BankAccountNumber, &a.BankAccountName, &a.Suspended, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		affiliates = append(affiliates, a)
	}
	return affiliates, rows.Err()
}

// ExecutePayout converts every eligible (pending or approved) commission for
// the affiliate into a single paid-out batch: one payment row, all included
// commissions marked paid, one notification, all in one transaction. The
// locking read (`FOR UPDATE`) plus the status guard on the update make a
// concurrent payout for the same affiliate wait and then find nothing to pay.
func (r *PostgresRepository) ExecutePayout(ctx context.Context, affiliate *domain.Affiliate) (*domain.Payment, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin payout transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Lock the eligible commissions for the duration of the transaction.
	lockQuery := `
		SELECT id, commission_amount
		FROM commissions
		WHERE affiliate_id = $1 AND status IN ('pending', 'approved')
		ORDER BY created_at ASC
		FOR UPDATE
	`
	rows, err := tx.Query(ctx, lockQuery, affiliate.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock eligible commissions: %w", err)
	}

	var ids []uuid.UUID
	total := decimal.Zero
	for rows.Next() {
		var id uuid.UUID
		var amount decimal.Decimal
		if err := rows.Scan(&id, &amount); err != nil {
			rows.Close()
			return nil, 0, err
		}
		ids = append(ids, id)
		total = total.Add(amount)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) == 0 || !total.IsPositive() {
		return nil, 0, ErrNothingToPay
	}

	// 2. Create exactly one payment row for the full sum.
	payment := &domain.Payment{
		ID:                  uuid.New(),
		AffiliateID:         affiliate.ID,
		Amount:              total,
		Status:              domain.PaymentStatusCompleted,
		MaskedAccountNumber: domain.MaskAccountNumber(affiliate.BankAccountNumber),
	}
	insertPaymentQuery := `
		INSERT INTO payments (id, affiliate_id, amount, status, masked_account_number, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING paid_at, created_at
	`
	err = tx.QueryRow(ctx, insertPaymentQuery,
		payment.ID, payment.AffiliateID, payment.Amount, payment.Status, payment.MaskedAccountNumber,
	).Scan(&payment.PaidAt, &payment.CreatedAt)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create payment record: %w", err)
	}

	// 3. Transition every included commission to paid. The status guard keeps
	// a row that somehow left the eligible set out of the batch.
	updateQuery := `
		UPDATE commissions
		SET status = 'paid', paid_at = NOW()
		WHERE id = ANY($1) AND status IN ('pending', 'approved')
	`
	result, err := tx.Exec(ctx, updateQuery, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to mark commissions paid: %w", err)
	}
	if result.RowsAffected() != int64(len(ids)) {
		return nil, 0, fmt.Errorf("payout marked %d of %d commissions: %w", result.RowsAffected(), len(ids), ErrStatusConflict)
	}

	// 4. Emit the payout notification within the same transaction.
	body := fmt.Sprintf("A payout of %s covering %d commissions was sent to account %s.",
		total.StringFixed(2), len(ids), payment.MaskedAccountNumber)
	insertNotificationQuery := `
		INSERT INTO notifications (id, affiliate_id, type, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err = tx.Exec(ctx, insertNotificationQuery,
		uuid.New(), affiliate.ID, domain.NotificationTypePayout, "Payout sent", body,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create payout notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to commit payout transaction: %w", err)
	}

	return payment, len(ids), nil
}

// FindPaymentsByAffiliateID retrieves the payout history for an affiliate,
// newest first.
func (r *PostgresRepository) FindPaymentsByAffiliateID(ctx context.Context, affiliateID uuid.UUID) ([]domain.Payment, error) {
	query := `
		SELECT id, affiliate_id, amount, status, masked_account_number, external_reference, paid_at, created_at
		FROM payments
		WHERE affiliate_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, affiliateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.AffiliateID, &p.Amount, &p.Status, &p.MaskedAccountNumber, &p.ExternalReference, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// UpdatePaymentStatus changes a payment's status. Status is the only mutable
// column on a payment after creation.
func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status string) error {
	result, err := r.db.Exec(ctx, `UPDATE payments SET status = $1 WHERE id = $2`, status, paymentID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
