/**
 * @description
 * HTTP router setup for the affiliate service using go-chi/chi. Click
 * tracking is public; everything else is a server-to-server call from the
 * main application, guarded by the internal API key.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers affiliate routes.
func NewRouter(h *AffiliateHandlers, internalKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Internal-API-Key"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public click tracking, rate limited inside the handler.
	r.Post("/track/click", h.TrackClickHandler)

	r.Route("/internal", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalKey))

		r.Post("/affiliates", h.RegisterAffiliateHandler)
		r.Route("/affiliates/{affiliateID}", func(r chi.Router) {
			r.Get("/", h.GetAffiliateHandler)
			r.Post("/suspend", h.SuspendAffiliateHandler)
			r.Post("/reactivate", h.ReactivateAffiliateHandler)
			r.Put("/payout-destination", h.UpdatePayoutDestinationHandler)

			r.Get("/balances", h.GetBalancesHandler)
			r.Post("/payouts", h.PayoutHandler)
			r.Get("/payments", h.ListPaymentsHandler)

			r.Get("/commissions", h.ListCommissionsHandler)
			r.Get("/commissions/status-counts", h.CommissionStatusCountsHandler)
			r.Get("/sales", h.ListSalesDetailHandler)
			r.Get("/sales/export", h.ExportSalesDetailHandler)
			r.Get("/stats", h.ConversionStatsHandler)
			r.Get("/funnel/daily", h.DailyFunnelHandler)

			r.Get("/notifications", h.ListNotificationsHandler)
			r.Get("/notifications/unread-count", h.UnreadNotificationCountHandler)
			r.Post("/notifications/read-all", h.MarkAllNotificationsReadHandler)
			r.Post("/notifications/{notificationID}/read", h.MarkNotificationReadHandler)
		})

		r.Post("/payments/{paymentID}/reverse", h.ReversePaymentHandler)

		r.Post("/commissions", h.CreateCommissionHandler)
		r.Post("/commissions/{commissionID}/approve", h.ApproveCommissionHandler)
		r.Post("/commissions/{commissionID}/cancel", h.CancelCommissionHandler)
	})

	return r
}
