package photographer_api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lensbook/internal/apperror"
	"lensbook/internal/auth"
	"lensbook/internal/logger"
	"lensbook/internal/models"
	"lensbook/internal/photographers"
	"lensbook/internal/utils"
)

type Handler struct {
	Service *photographers.Service
	Logger  *logger.Logger
}

func NewHandler(service *photographers.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// Search handles GET /photographers with optional filters.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.PhotographerSearchFilter{
		Category: q.Get("category"),
		City:     q.Get("city"),
		Date:     q.Get("date"),
	}
	if v := q.Get("min_price"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.WriteDomainError(w, "invalid min_price", fmt.Errorf("%w: min_price must be an integer", apperror.ErrValidation))
			return
		}
		filter.MinPrice = n
	}
	if v := q.Get("max_price"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.WriteDomainError(w, "invalid max_price", fmt.Errorf("%w: max_price must be an integer", apperror.ErrValidation))
			return
		}
		filter.MaxPrice = n
	}

	h.Logger.Info("API", fmt.Sprintf("Search: category=%s city=%s date=%s", filter.Category, filter.City, filter.Date))

	profiles, err := h.Service.Search(r.Context(), filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Search: %v", err))
		utils.WriteDomainError(w, "search failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "photographers retrieved", profiles)
}

// GetProfile handles GET /photographers/{photographerId}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")
	h.Logger.Info("API", fmt.Sprintf("GetProfile: photographerId=%s", photographerID))

	profile, err := h.Service.Profile(r.Context(), photographerID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetProfile: %v", err))
		utils.WriteDomainError(w, "failed to get profile", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "profile retrieved", profile)
}

// Register handles POST /photographers
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "Register: received request")

	var req models.RegisterPhotographerRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Register: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid registration payload", err)
		return
	}

	ph, err := h.Service.Register(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Register: %v", err))
		utils.WriteDomainError(w, "failed to register photographer", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "photographer registered", ph)
}

// Update handles PATCH /photographers/{photographerId}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")
	h.Logger.Info("API", fmt.Sprintf("Update: photographerId=%s", photographerID))

	var req models.UpdatePhotographerRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Update: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid update payload", err)
		return
	}

	ph, err := h.Service.Update(r.Context(), auth.CurrentUser(r.Context()), photographerID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Update: %v", err))
		utils.WriteDomainError(w, "failed to update photographer", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "photographer updated", ph)
}

// Verify handles PATCH /admin/photographers/{photographerId}/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")
	h.Logger.Info("API", fmt.Sprintf("Verify: photographerId=%s", photographerID))

	var req models.VerifyPhotographerRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Verify: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid verification payload", err)
		return
	}

	ph, err := h.Service.Verify(r.Context(), auth.CurrentUser(r.Context()), photographerID, *req.Verified)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Verify: %v", err))
		utils.WriteDomainError(w, "failed to update verification", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "verification updated", ph)
}

// ListCategories handles GET /categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Service.ListCategories(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListCategories: %v", err))
		utils.WriteDomainError(w, "failed to list categories", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "categories retrieved", cats)
}

// Portfolio handles GET /photographers/{photographerId}/portfolio
func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")

	items, err := h.Service.Portfolio(r.Context(), photographerID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Portfolio: %v", err))
		utils.WriteDomainError(w, "failed to list portfolio", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "portfolio retrieved", items)
}

// AddPortfolioItem handles POST /photographers/{photographerId}/portfolio
func (h *Handler) AddPortfolioItem(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")
	h.Logger.Info("API", fmt.Sprintf("AddPortfolioItem: photographerId=%s", photographerID))

	var req models.AddPortfolioItemRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddPortfolioItem: bad request body: %v", err))
		utils.WriteDomainError(w, "invalid portfolio payload", err)
		return
	}
	req.PhotographerID = photographerID

	item, err := h.Service.AddPortfolioItem(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddPortfolioItem: %v", err))
		utils.WriteDomainError(w, "failed to add portfolio item", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "portfolio item added", item)
}

// DeletePortfolioItem handles DELETE /photographers/{photographerId}/portfolio/{itemId}
func (h *Handler) DeletePortfolioItem(w http.ResponseWriter, r *http.Request) {
	photographerID := chi.URLParam(r, "photographerId")
	itemID := chi.URLParam(r, "itemId")
	h.Logger.Info("API", fmt.Sprintf("DeletePortfolioItem: photographerId=%s itemId=%s", photographerID, itemID))

	if err := h.Service.RemovePortfolioItem(r.Context(), auth.CurrentUser(r.Context()), photographerID, itemID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeletePortfolioItem: %v", err))
		utils.WriteDomainError(w, "failed to delete portfolio item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
