/**
 * @description
 * Read-side handlers: commission history, status buckets, the paginated
 * sales-detail view and its XLSX export, funnel analytics, and the
 * notification feed.
 */

package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shoplane/affiliate-service/internal/domain"
	"github.com/shoplane/affiliate-service/internal/report"
	"github.com/shoplane/affiliate-service/internal/store"
)

// exportPageSize is the page size used when draining the sales-detail view
// for an XLSX export.
const exportPageSize = 100

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// ListCommissionsHandler returns the affiliate's full commission history,
// newest first.
func (h *AffiliateHandlers) ListCommissionsHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	commissions, err := h.service.GetCommissions(r.Context(), affiliateID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to list commissions\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list commissions.")
		return
	}
	if commissions == nil {
		commissions = []domain.Commission{}
	}

	h.writeJSON(w, http.StatusOK, commissions)
}

// CommissionStatusCountsHandler returns how many commissions sit in each
// status bucket.
func (h *AffiliateHandlers) CommissionStatusCountsHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	counts, err := h.service.GetCommissionStatusCounts(r.Context(), affiliateID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to count commissions\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to count commissions.")
		return
	}

	h.writeJSON(w, http.StatusOK, counts)
}

func salesOptionsFromRequest(r *http.Request) domain.SalesListOptions {
	q := r.URL.Query()
	return domain.SalesListOptions{
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
		Search:   q.Get("search"),
		PlanTier: q.Get("plan"),
		Status:   q.Get("status"),
	}
}

// ListSalesDetailHandler returns one page of the sales-detail view.
func (h *AffiliateHandlers) ListSalesDetailHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	rows, err := h.service.ListSalesDetail(r.Context(), affiliateID, salesOptionsFromRequest(r))
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to list sales detail\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list sales.")
		return
	}
	if rows == nil {
		rows = []domain.SalesDetailRow{}
	}

	h.writeJSON(w, http.StatusOK, rows)
}

// ExportSalesDetailHandler streams the full sales-detail view as an XLSX
// workbook, honoring the same filters as the paginated endpoint.
func (h *AffiliateHandlers) ExportSalesDetailHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	opts := salesOptionsFromRequest(r)
	opts.Limit = exportPageSize
	opts.Offset = 0

	var rows []domain.SalesDetailRow
	for {
		page, err := h.service.ListSalesDetail(r.Context(), affiliateID, opts)
		if err != nil {
			log.Printf("level=error component=api msg=\"failed to load sales for export\" affiliate_id=%s err=%v", affiliateID, err)
			h.writeError(w, http.StatusInternalServerError, "Unable to export sales.")
			return
		}
		rows = append(rows, page...)
		if len(page) < exportPageSize {
			break
		}
		opts.Offset += exportPageSize
	}

	filename := fmt.Sprintf("sales_%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := report.WriteSalesDetail(w, rows); err != nil {
		// Headers are already on the wire; all we can do is log.
		log.Printf("level=error component=api msg=\"failed to stream sales export\" affiliate_id=%s err=%v", affiliateID, err)
	}
}

// ConversionStatsHandler returns the affiliate's funnel summary.
func (h *AffiliateHandlers) ConversionStatsHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	stats, err := h.service.ConversionStats(r.Context(), affiliateID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to compute conversion stats\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to compute stats.")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// DailyFunnelHandler returns the dense 30-day funnel time series.
func (h *AffiliateHandlers) DailyFunnelHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	series, err := h.service.DailyFunnelSeries(r.Context(), affiliateID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to build funnel series\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to build funnel series.")
		return
	}

	h.writeJSON(w, http.StatusOK, series)
}

// ListNotificationsHandler returns a page of the affiliate's notification
// feed, newest first.
func (h *AffiliateHandlers) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	opts := domain.NotificationListOptions{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}
	notifications, err := h.service.ListNotifications(r.Context(), affiliateID, opts)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to list notifications\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list notifications.")
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}

	h.writeJSON(w, http.StatusOK, notifications)
}

// MarkNotificationReadHandler marks one notification as read.
func (h *AffiliateHandlers) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}
	notificationID, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid notification ID format.")
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), affiliateID, notificationID); err != nil {
		if errors.Is(err, store.ErrNotificationNotFound) {
			h.writeError(w, http.StatusNotFound, "Notification not found.")
			return
		}
		log.Printf("level=error component=api msg=\"failed to mark notification read\" notification_id=%s err=%v", notificationID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to update notification.")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllNotificationsReadHandler marks the affiliate's whole feed as read.
func (h *AffiliateHandlers) MarkAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllNotificationsRead(r.Context(), affiliateID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to mark notifications read\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to update notifications.")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// UnreadNotificationCountHandler returns the unread badge count.
func (h *AffiliateHandlers) UnreadNotificationCountHandler(w http.ResponseWriter, r *http.Request) {
	affiliateID, ok := h.affiliateIDFromURL(w, r)
	if !ok {
		return
	}

	count, err := h.service.CountUnreadNotifications(r.Context(), affiliateID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to count unread notifications\" affiliate_id=%s err=%v", affiliateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to count notifications.")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}
