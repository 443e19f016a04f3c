/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface for affiliates, clicks, commissions, funnel analytics, and
 * notifications. The payout transaction lives in postgres_payout.go.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - internal/domain: Domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shoplane/affiliate-service/internal/domain"
)

var (
	ErrAffiliateNotFound    = errors.New("affiliate not found")
	ErrCommissionNotFound   = errors.New("commission not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrCodeTaken            = errors.New("referral code already taken")
	ErrNothingToPay         = errors.New("no eligible commissions to pay out")
	ErrStatusConflict       = errors.New("commission status changed concurrently")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, constraint)
}

// CreateAffiliate inserts a new affiliate row. Unique violations on email or
// referral code surface as the named domain errors so registration can report
// a specific reason.
func (r *PostgresRepository) CreateAffiliate(ctx context.Context, affiliate *domain.Affiliate) error {
	query := `
		INSERT INTO affiliates (id, name, email, referral_code, bank_account_number, bank_account_name, suspended, created_at, updated_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, FALSE, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		affiliate.ID, affiliate.Name, affiliate.Email, affiliate.ReferralCode,
		affiliate.BankAccountNumber, affiliate.BankAccountName,
	).Scan(&affiliate.CreatedAt, &affiliate.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "email") {
			return ErrEmailTaken
		}
		if isUniqueViolation(err, "referral_code") {
			return ErrCodeTaken
		}
		return err
	}
	return nil
}

// FindAffiliateByID retrieves an affiliate by its ID.
func (r *PostgresRepository) FindAffiliateByID(ctx context.Context, affiliateID uuid.UUID) (*domain.Affiliate, error) {
	return r.scanAffiliate(ctx, `WHERE id = $1`, affiliateID)
}

// FindAffiliateByReferralCode resolves an affiliate from a referral code.
// Used by the sale-event path and by click tracking.
func (r *PostgresRepository) FindAffiliateByReferralCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	return r.scanAffiliate(ctx, `WHERE referral_code = $1`, code)
}

func (r *PostgresRepository) scanAffiliate(ctx context.Context, where string, arg interface{}) (*domain.Affiliate, error) {
	var affiliate domain.Affiliate
	query := `
		SELECT id, name, email, referral_code, bank_account_number, bank_account_name, suspended, created_at, updated_at
		FROM affiliates ` + where
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&affiliate.ID, &affiliate.Name, &affiliate.Email, &affiliate.ReferralCode,
		&affiliate.BankAccountNumber, &affiliate.BankAccountName, &affiliate.Suspended,
		&affiliate.CreatedAt, &affiliate.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAffiliateNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

// ReferralCodeExists reports whether a referral code is already taken.
func (r *PostgresRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM affiliates WHERE referral_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// SetAffiliateSuspended toggles the suspension flag on an affiliate.
func (r *PostgresRepository) SetAffiliateSuspended(ctx context.Context, affiliateID uuid.UUID, suspended bool) error {
	result, err := r.db.Exec(ctx, `UPDATE affiliates SET suspended = $1, updated_at = NOW() WHERE id = $2`, suspended, affiliateID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAffiliateNotFound
	}
	return nil
}

// UpdateAffiliatePayoutDestination replaces the bank account payouts are sent to.
func (r *PostgresRepository) UpdateAffiliatePayoutDestination(ctx context.Context, affiliateID uuid.UUID, accountNumber, accountName string) error {
	query := `UPDATE affiliates SET bank_account_number = $1, bank_account_name = $2, updated_at = NOW() WHERE id = $3`
	result, err := r.db.Exec(ctx, query, accountNumber, accountName, affiliateID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAffiliateNotFound
	}
	return nil
}

// HasRecentClick reports whether a click for the (affiliate, hashed address)
// pair was already recorded at or after the given time.
func (r *PostgresRepository) HasRecentClick(ctx context.Context, affiliateID uuid.UUID, visitorHash string, since time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM clicks
			WHERE affiliate_id = $1 AND visitor_hash = $2 AND created_at >= $3
		)
	`
	if err := r.db.QueryRow(ctx, query, affiliateID, visitorHash, since).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateClick inserts a new click row.
func (r *PostgresRepository) CreateClick(ctx context.Context, click *domain.Click) error {
	query := `
		INSERT INTO clicks (id, affiliate_id, visitor_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, click.ID, click.AffiliateID, click.VisitorHash).Scan(&click.CreatedAt)
}

// CountClicks counts the deduplicated clicks recorded for an affiliate.
func (r *PostgresRepository) CountClicks(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clicks WHERE affiliate_id = $1`, affiliateID).Scan(&count)
	return count, err
}

// CreateCommission inserts a new commission row with its derived amounts.
func (r *PostgresRepository) CreateCommission(ctx context.Context, commission *domain.Commission) error {
	query := `
		INSERT INTO commissions (
			id, affiliate_id, referred_user_id, plan_tier, gross_amount, vat_rate,
			base_amount, rate_percent, commission_amount, payment_type, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query,
		commission.ID, commission.AffiliateID, commission.ReferredUserID, commission.PlanTier,
		commission.GrossAmount, commission.VATRate, commission.BaseAmount, commission.RatePercent,
		commission.CommissionAmount, commission.PaymentType, commission.Status,
	).Scan(&commission.CreatedAt)
}

// FindCommissionByID retrieves one commission.
func (r *PostgresRepository) FindCommissionByID(ctx context.Context, commissionID uuid.UUID) (*domain.Commission, error) {
	var c domain.Commission
	query := commissionSelect + ` WHERE id = $1`
	err := r.db.QueryRow(ctx, query, commissionID).Scan(commissionFields(&c)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCommissionNotFound
		}
		return nil, err
	}
	return &c, nil
}

const commissionSelect = `
	SELECT id, affiliate_id, referred_user_id, plan_tier, gross_amount, vat_rate,
	       base_amount, rate_percent, commission_amount, payment_type, status, created_at, paid_at
	FROM commissions`

func commissionFields(c *domain.Commission) []interface{} {
	return []interface{}{
		&c.ID, &c.AffiliateID, &c.ReferredUserID, &c.PlanTier, &c.GrossAmount, &c.VATRate,
		&c.BaseAmount, &c.RatePercent, &c.CommissionAmount, &c.PaymentType, &c.Status,
		&c.CreatedAt, &c.PaidAt,
	}
}

// FindCommissionsByAffiliateID retrieves all commissions for an affiliate,
// newest first.
func (r *PostgresRepository) FindCommissionsByAffiliateID(ctx context.Context, affiliateID uuid.UUID) ([]domain.Commission, error) {
	return r.queryCommissions(ctx, commissionSelect+` WHERE affiliate_id = $1 ORDER BY created_at DESC`, affiliateID)
}

// FindOutstandingCommissions retrieves the non-terminal (pending, approved)
// commissions for an affiliate. This is the read path for balances and the
// payout schedule; the payout transaction uses its own locking read.
func (r *PostgresRepository) FindOutstandingCommissions(ctx context.Context, affiliateID uuid.UUID) ([]domain.Commission, error) {
	query := commissionSelect + ` WHERE affiliate_id = $1 AND status IN ('pending', 'approved') ORDER BY created_at ASC`
	return r.queryCommissions(ctx, query, affiliateID)
}

func (r *PostgresRepository) queryCommissions(ctx context.Context, query string, args ...interface{}) ([]domain.Commission, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commissions []domain.Commission
	for rows.Next() {
		var c domain.Commission
		if err := rows.Scan(commissionFields(&c)...); err != nil {
			return nil, err
		}
		commissions = append(commissions, c)
	}
	return commissions, rows.Err()
}

// UpdateCommissionStatus moves a commission from one status to another. The
// WHERE clause doubles as an optimistic guard: if the row is no longer in
// fromStatus the update affects zero rows and the caller gets
// ErrStatusConflict instead of a silent overwrite.
func (r *PostgresRepository) UpdateCommissionStatus(ctx context.Context, commissionID uuid.UUID, fromStatus, toStatus string) error {
	query := `
		UPDATE commissions
		SET status = $1,
		    paid_at = CASE WHEN $1 = 'paid' THEN NOW() ELSE paid_at END
		WHERE id = $2 AND status = $3
	`
	result, err := r.db.Exec(ctx, query, toStatus, commissionID, fromStatus)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

// GetCommissionStatusCounts returns the per-status count and summed amount
// buckets for an affiliate. Buckets with no rows come back as zero.
func (r *PostgresRepository) GetCommissionStatusCounts(ctx context.Context, affiliateID uuid.UUID) (*domain.CommissionStatusCounts, error) {
	var counts domain.CommissionStatusCounts
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(commission_amount) FILTER (WHERE status = 'pending'), 0),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COALESCE(SUM(commission_amount) FILTER (WHERE status = 'approved'), 0),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COALESCE(SUM(commission_amount) FILTER (WHERE status = 'paid'), 0),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(SUM(commission_amount) FILTER (WHERE status = 'cancelled'), 0)
		FROM commissions
		WHERE affiliate_id = $1
	`
	err := r.db.QueryRow(ctx, query, affiliateID).Scan(
		&counts.PendingCount, &counts.PendingAmount,
		&counts.ApprovedCount, &counts.ApprovedAmount,
		&counts.PaidCount, &counts.PaidAmount,
		&counts.CancelledCount, &counts.CancelledAmount,
	)
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

// ListSalesDetail returns the paginated, filterable sales-detail rows for an
// affiliate: each commission joined with the referred account and its live
// subscription record. The subscription label is derived after scanning so
// it always reflects the state as of this read.
func (r *PostgresRepository) ListSalesDetail(ctx context.Context, affiliateID uuid.UUID, opts domain.SalesListOptions) ([]domain.SalesDetailRow, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	query := `
		SELECT c.id, c.referred_user_id,
		       COALESCE(u.name, ''), COALESCE(u.store_name, ''),
		       c.plan_tier, c.gross_amount, c.commission_amount, c.payment_type, c.status,
		       COALESCE(s.plan, ''), s.expires_at,
		       c.created_at
		FROM commissions c
		LEFT JOIN users u ON u.id = c.referred_user_id
		LEFT JOIN subscriptions s ON s.user_id = c.referred_user_id
		WHERE c.affiliate_id = $1
	`
	args := []interface{}{affiliateID}

	if search := strings.TrimSpace(opts.Search); search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(` AND (u.name ILIKE $%d OR u.store_name ILIKE $%d)`, len(args), len(args))
	}
	if tier := strings.TrimSpace(opts.PlanTier); tier != "" {
		args = append(args, tier)
		query += fmt.Sprintf(` AND c.plan_tier = $%d`, len(args))
	}
	if status := strings.TrimSpace(opts.Status); status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` AND c.status = $%d`, len(args))
	}

	args = append(args, opts.Limit, opts.Offset)
	query += fmt.Sprintf(` ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now().UTC()
	var detail []domain.SalesDetailRow
	for rows.Next() {
		var row domain.SalesDetailRow
		if err := rows.Scan(
			&row.CommissionID, &row.ReferredUserID, &row.CustomerName, &row.StoreName,
			&row.PlanTier, &row.GrossAmount, &row.CommissionAmount, &row.PaymentType, &row.Status,
			&row.SubscriptionPlan, &row.SubscriptionExpiry, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		row.SubscriptionLabel = domain.SubscriptionStatusLabel(row.SubscriptionPlan, row.SubscriptionExpiry, now)
		detail = append(detail, row)
	}
	return detail, rows.Err()
}

// CountSignups counts referred accounts attributed to the affiliate,
// independent of payment status.
func (r *PostgresRepository) CountSignups(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE referred_by_affiliate_id = $1`, affiliateID).Scan(&count)
	return count, err
}

// CountPaidConversions counts commissions that actually produced revenue
// (any status except cancelled).
func (r *PostgresRepository) CountPaidConversions(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM commissions WHERE affiliate_id = $1 AND status IN ('pending', 'approved', 'paid')`
	err := r.db.QueryRow(ctx, query, affiliateID).Scan(&count)
	return count, err
}

// CountActiveSubscriptions counts referred accounts whose live subscription
// is neither free/trial nor expired.
func (r *PostgresRepository) CountActiveSubscriptions(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	var count int64
	query := `
		SELECT COUNT(*)
		FROM users u
		JOIN subscriptions s ON s.user_id = u.id
		WHERE u.referred_by_affiliate_id = $1
		  AND lower(COALESCE(s.plan, '')) NOT IN ('', 'free', 'trial')
		  AND (s.expires_at IS NULL OR s.expires_at > NOW())
	`
	err := r.db.QueryRow(ctx, query, affiliateID).Scan(&count)
	return count, err
}

// ClickCountsByDay buckets clicks per calendar day since the given time.
func (r *PostgresRepository) ClickCountsByDay(ctx context.Context, affiliateID uuid.UUID, since time.Time) (map[string]int64, error) {
	query := `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*)
		FROM clicks
		WHERE affiliate_id = $1 AND created_at >= $2
		GROUP BY 1
	`
	return r.queryDayCounts(ctx, query, affiliateID, since)
}

// SignupCountsByDay buckets referred-account signups per calendar day.
func (r *PostgresRepository) SignupCountsByDay(ctx context.Context, affiliateID uuid.UUID, since time.Time) (map[string]int64, error) {
	query := `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*)
		FROM users
		WHERE referred_by_affiliate_id = $1 AND created_at >= $2
		GROUP BY 1
	`
	return r.queryDayCounts(ctx, query, affiliateID, since)
}

// CommissionCountsByDay buckets commission events per calendar day.
func (r *PostgresRepository) CommissionCountsByDay(ctx context.Context, affiliateID uuid.UUID, since time.Time) (map[string]int64, error) {
	query := `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*)
		FROM commissions
		WHERE affiliate_id = $1 AND created_at >= $2
		GROUP BY 1
	`
	return r.queryDayCounts(ctx, query, affiliateID, since)
}

func (r *PostgresRepository) queryDayCounts(ctx context.Context, query string, affiliateID uuid.UUID, since time.Time) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, query, affiliateID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		counts[day] = count
	}
	return counts, rows.Err()
}

// CreateNotification appends a notification to an affiliate's feed.
func (r *PostgresRepository) CreateNotification(ctx context.Context, notification *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, affiliate_id, type, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query,
		notification.ID, notification.AffiliateID, notification.Type,
		notification.Title, notification.Body,
	).Scan(&notification.CreatedAt)
}

// ListNotifications retrieves an affiliate's notification feed, newest first.
func (r *PostgresRepository) ListNotifications(ctx context.Context, affiliateID uuid.UUID, opts domain.NotificationListOptions) ([]domain.Notification, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	query := `
		SELECT id, affiliate_id, type, title, body, read_at, created_at
		FROM notifications
		WHERE affiliate_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, affiliateID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.AffiliateID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead sets the read timestamp once. Returns false when the
// notification does not exist or was already read.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, affiliateID uuid.UUID, notificationID uuid.UUID) (bool, error) {
	query := `
		UPDATE notifications
		SET read_at = NOW()
		WHERE id = $1 AND affiliate_id = $2 AND read_at IS NULL
	`
	result, err := r.db.Exec(ctx, query, notificationID, affiliateID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// MarkAllNotificationsRead marks every unread notification for an affiliate.
func (r *PostgresRepository) MarkAllNotificationsRead(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(ctx, `UPDATE notifications SET read_at = NOW() WHERE affiliate_id = $1 AND read_at IS NULL`, affiliateID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// CountUnreadNotifications counts the unread notifications for an affiliate.
func (r *PostgresRepository) CountUnreadNotifications(ctx context.Context, affiliateID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE affiliate_id = $1 AND read_at IS NULL`, affiliateID).Scan(&count)
	return count, err
}
