package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cakevision-backend/internal/models"
	"cakevision-backend/internal/services"
	"cakevision-backend/internal/supabase"
)

type SaleAdminStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ListSales(ctx context.Context) ([]models.HolidaySale, error)
	CreateSale(ctx context.Context, s *models.HolidaySale) error
	UpdateSale(ctx context.Context, s *models.HolidaySale) error
	DeleteSale(ctx context.Context, saleID uuid.UUID) error
}

type SalesHandler struct {
	resolver *services.SaleResolver
	store    SaleAdminStore
	log      *slog.Logger
}

func NewSalesHandler(resolver *services.SaleResolver, store SaleAdminStore, log *slog.Logger) *SalesHandler {
	return &SalesHandler{
		resolver: resolver,
		store:    store,
		log:      log,
	}
}

// GetActiveSale godoc
// @Summary     Resolve the active holiday sale for a visitor
// @Description Public endpoint consumed by marketing pages. At most one sale applies: a country-scoped sale beats the global default, then priority descending, then latest start date. Open-ended sales (end year >= 2099) render as "limited spots" instead of a countdown.
// @Tags        sales
// @Produce     json
// @Param       country query string false "ISO 3166-1 alpha-2 country code"
// @Success     200 {object} models.ActiveSaleResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /sales/active [get]
func (h *SalesHandler) GetActiveSale(c *gin.Context) {
	sale, err := h.resolver.ActiveSale(c.Request.Context(), c.Query("country"))
	if err != nil {
		h.log.Error("failed to resolve active sale", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to resolve active sale"})
		return
	}

	resp := models.ActiveSaleResponse{}
	if sale != nil {
		s := models.NewSaleResponse(*sale)
		resp.Sale = &s
	}
	c.JSON(http.StatusOK, resp)
}

// requireAdmin loads the caller's profile and rejects non-admins.
func (h *SalesHandler) requireAdmin(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return uuid.Nil, false
	}

	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return uuid.Nil, false
	}

	profile, err := h.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "admin access required"})
			return uuid.Nil, false
		}
		h.log.Error("failed to load profile for admin check", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to verify permissions"})
		return uuid.Nil, false
	}
	if !profile.IsAdmin {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "admin access required"})
		return uuid.Nil, false
	}

	return userID, true
}

// ListSales godoc
// @Summary     List all holiday sales (admin)
// @Tags        sales
// @Produce     json
// @Security    Bearer
// @Success     200 {array} models.SaleResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /admin/sales [get]
func (h *SalesHandler) ListSales(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	sales, err := h.store.ListSales(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list sales", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list sales"})
		return
	}

	resp := make([]models.SaleResponse, 0, len(sales))
	for _, s := range sales {
		resp = append(resp, models.NewSaleResponse(s))
	}
	c.JSON(http.StatusOK, resp)
}

// CreateSale godoc
// @Summary     Create a holiday sale (admin)
// @Tags        sales
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.SaleRequest true "Sale definition"
// @Success     201 {object} models.SaleResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /admin/sales [post]
func (h *SalesHandler) CreateSale(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	var req models.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}
	if !req.EndDate.After(req.StartDate) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "end_date must be after start_date"})
		return
	}

	sale := saleFromRequest(req)
	sale.ID = uuid.New()

	if err := h.store.CreateSale(c.Request.Context(), sale); err != nil {
		h.log.Error("failed to create sale", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create sale"})
		return
	}

	h.resolver.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, models.NewSaleResponse(*sale))
}

// UpdateSale godoc
// @Summary     Update a holiday sale (admin)
// @Tags        sales
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       sale_id path string true "Sale ID (UUID)"
// @Param       request body models.SaleRequest true "Sale definition"
// @Success     200 {object} models.SaleResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/sales/{sale_id} [put]
func (h *SalesHandler) UpdateSale(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	saleID, err := uuid.Parse(c.Param("sale_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid sale id"})
		return
	}

	var req models.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}
	if !req.EndDate.After(req.StartDate) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "end_date must be after start_date"})
		return
	}

	sale := saleFromRequest(req)
	sale.ID = saleID

	if err := h.store.UpdateSale(c.Request.Context(), sale); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "sale not found"})
			return
		}
		h.log.Error("failed to update sale", "sale_id", saleID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update sale"})
		return
	}

	h.resolver.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, models.NewSaleResponse(*sale))
}

// DeleteSale godoc
// @Summary     Delete a holiday sale (admin)
// @Tags        sales
// @Produce     json
// @Security    Bearer
// @Param       sale_id path string true "Sale ID (UUID)"
// @Success     200 {object} map[string]string
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/sales/{sale_id} [delete]
func (h *SalesHandler) DeleteSale(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	saleID, err := uuid.Parse(c.Param("sale_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid sale id"})
		return
	}

	if err := h.store.DeleteSale(c.Request.Context(), saleID); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "sale not found"})
			return
		}
		h.log.Error("failed to delete sale", "sale_id", saleID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete sale"})
		return
	}

	h.resolver.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func saleFromRequest(req models.SaleRequest) *models.HolidaySale {
	sale := &models.HolidaySale{
		Label:      req.Label,
		BannerText: req.BannerText,
		Emoji:      req.Emoji,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Active:     req.Active,
		Priority:   req.Priority,
	}
	if req.Country != "" {
		sale.Country = sql.NullString{String: strings.ToUpper(req.Country), Valid: true}
	}
	return sale
}
