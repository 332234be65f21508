package booking_api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lensbook/internal/auth"
	"lensbook/internal/booking"
	"lensbook/internal/logger"
	"lensbook/internal/models"
	"lensbook/internal/utils"
)

type Handler struct {
	Service       *booking.Service
	Logger        *logger.Logger
	WebhookSecret string
}

func NewHandler(service *booking.Service, log *logger.Logger, webhookSecret string) *Handler {
	return &Handler{Service: service, Logger: log, WebhookSecret: webhookSecret}
}

// CreateBooking handles POST /bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "CreateBooking: received request")

	var req models.CreateBookingRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid booking payload", err)
		return
	}

	resp, err := h.Service.CreateBooking(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: %v", err))
		utils.WriteDomainError(w, "failed to create booking", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, "booking created", resp)
}

// ListBookings handles GET /bookings
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Service.ListForActor(r.Context(), auth.CurrentUser(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListBookings: %v", err))
		utils.WriteDomainError(w, "failed to list bookings", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "bookings retrieved", bookings)
}

// GetBooking handles GET /bookings/{bookingId}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("GetBooking: bookingId=%s", bookingID))

	detail, err := h.Service.GetBooking(r.Context(), auth.CurrentUser(r.Context()), bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBooking: %v", err))
		utils.WriteDomainError(w, "failed to get booking", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "booking retrieved", detail)
}

// UpdateStatus handles PATCH /bookings/{bookingId}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("UpdateStatus: bookingId=%s", bookingID))

	var req models.UpdateStatusRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateStatus: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid status payload", err)
		return
	}

	updated, err := h.Service.SetStatus(r.Context(), auth.CurrentUser(r.Context()), bookingID, req.Status)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateStatus: %v", err))
		utils.WriteDomainError(w, "failed to update booking status", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "booking status updated", updated)
}

// CreatePaymentIntent handles POST /bookings/{bookingId}/payment-intent
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("CreatePaymentIntent: bookingId=%s", bookingID))

	intent, err := h.Service.PaymentIntentFor(r.Context(), auth.CurrentUser(r.Context()), bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePaymentIntent: %v", err))
		utils.WriteDomainError(w, "failed to prepare payment", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "payment intent ready", map[string]string{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
	})
}

// Voucher handles GET /bookings/{bookingId}/voucher
func (h *Handler) Voucher(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("Voucher: bookingId=%s", bookingID))

	png, err := h.Service.Voucher(r.Context(), auth.CurrentUser(r.Context()), bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Voucher: %v", err))
		utils.WriteDomainError(w, "failed to generate voucher", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// StripeWebhook handles POST /webhooks/stripe. Unauthenticated: trust comes
// from the signature header.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: failed to read body: %v", err))
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	event, err := booking.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"), h.WebhookSecret)
	if err != nil {
		h.Logger.LogSecurity("WEBHOOK", fmt.Sprintf("rejected stripe webhook: %v", err))
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		err = h.Service.HandlePaymentSucceeded(r.Context(), event.IntentID)
	case "payment_intent.payment_failed", "payment_intent.canceled":
		err = h.Service.HandlePaymentFailed(r.Context(), event.IntentID)
	default:
		// Other event types are acknowledged and dropped
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: %v", err))
		http.Error(w, "webhook processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
