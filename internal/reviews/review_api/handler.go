package review_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lensbook/internal/auth"
	"lensbook/internal/logger"
	"lensbook/internal/models"
	"lensbook/internal/reviews"
	"lensbook/internal/utils"
)

type Handler struct {
	Service *reviews.Service
	Logger  *logger.Logger
}

func NewHandler(service *reviews.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// CreateReview handles POST /reviews
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "CreateReview: received request")

	var req models.CreateReviewRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateReview: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid review payload", err)
		return
	}

	review, err := h.Service.Create(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateReview: %v", err))
		utils.WriteDomainError(w, "failed to create review", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "review created", review)
}

// ListForPhotographer handles GET /photographers/{photographerId}/reviews
func (h *Handler) ListForPhotographer(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")

	list, err := h.Service.ForPhotographer(r.Context(), photographerID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListForPhotographer: %v", err))
		utils.WriteDomainError(w, "failed to list reviews", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "reviews retrieved", list)
}
