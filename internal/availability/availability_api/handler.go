package availability_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lensbook/internal/auth"
	"lensbook/internal/availability"
	"lensbook/internal/logger"
	"lensbook/internal/models"
	"lensbook/internal/utils"
)

type Handler struct {
	Service *availability.Service
	Logger  *logger.Logger
}

func NewHandler(service *availability.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// ListSlots handles GET /photographers/{photographerId}/availability?date=
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")
	date := r.URL.Query().Get("date")
	h.Logger.Info("API", fmt.Sprintf("ListSlots: photographerId=%s date=%s", photographerID, date))

	slots, err := h.Service.ListSlots(r.Context(), photographerID, date)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListSlots: %v", err))
		utils.WriteDomainError(w, "failed to list availability", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "availability retrieved", slots)
}

// AddSlot handles POST /photographers/{photographerId}/availability
func (h *Handler) AddSlot(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")
	h.Logger.Info("API", fmt.Sprintf("AddSlot: photographerId=%s", photographerID))

	var req models.AddSlotRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddSlot: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid slot payload", err)
		return
	}
	req.PhotographerID = photographerID

	slot, err := h.Service.AddSlot(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddSlot: %v", err))
		utils.WriteDomainError(w, "failed to add slot", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, "slot added", slot)
}

// DeleteSlot handles DELETE /photographers/{photographerId}/availability/{slotId}
func (h *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")
	slotID := chi.URLParam(r, "slotId")
	h.Logger.Info("API", fmt.Sprintf("DeleteSlot: photographerId=%s slotId=%s", photographerID, slotID))

	err := h.Service.RemoveSlot(r.Context(), auth.CurrentUser(r.Context()), slotID, photographerID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteSlot: %v", err))
		utils.WriteDomainError(w, "failed to delete slot", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
