package messaging_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lensbook/internal/auth"
	"lensbook/internal/logger"
	"lensbook/internal/messaging"
	"lensbook/internal/models"
	"lensbook/internal/utils"
)

type Handler struct {
	Service *messaging.Service
	Logger  *logger.Logger
}

func NewHandler(service *messaging.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// PostMessage handles POST /bookings/{bookingId}/messages
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("PostMessage: bookingId=%s", bookingID))

	var req models.PostMessageRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PostMessage: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid message payload", err)
		return
	}
	req.BookingID = bookingID

	msg, err := h.Service.Post(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PostMessage: %v", err))
		utils.WriteDomainError(w, "failed to post message", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "message sent", msg)
}

// GetConversation handles GET /bookings/{bookingId}/messages
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	msgs, err := h.Service.Conversation(r.Context(), auth.CurrentUser(r.Context()), bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetConversation: %v", err))
		utils.WriteDomainError(w, "failed to load conversation", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "conversation retrieved", msgs)
}

// UnreadCount handles GET /messages/unread
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.UnreadCount(r.Context(), auth.CurrentUser(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UnreadCount: %v", err))
		utils.WriteDomainError(w, "failed to count unread messages", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "unread count retrieved", map[string]int{"unread": count})
}

// AddDeliverable handles POST /bookings/{bookingId}/deliverables
func (h *Handler) AddDeliverable(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("AddDeliverable: bookingId=%s", bookingID))

	var req models.AddDeliverableRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddDeliverable: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid deliverable payload", err)
		return
	}
	req.BookingID = bookingID

	item, err := h.Service.AddDeliverable(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddDeliverable: %v", err))
		utils.WriteDomainError(w, "failed to add deliverable", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "deliverable added", item)
}

// ListDeliverables handles GET /bookings/{bookingId}/deliverables
func (h *Handler) ListDeliverables(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	items, err := h.Service.Deliverables(r.Context(), auth.CurrentUser(r.Context()), bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListDeliverables: %v", err))
		utils.WriteDomainError(w, "failed to list deliverables", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "deliverables retrieved", items)
}
