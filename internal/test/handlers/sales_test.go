package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cakevision-backend/internal/handlers"
	"cakevision-backend/internal/models"
	"cakevision-backend/internal/services"
	"cakevision-backend/internal/supabase"
)

type fakeSaleAdminStore struct {
	admin   bool
	sales   []models.HolidaySale
	created *models.HolidaySale
	deleted uuid.UUID
}

func (f *fakeSaleAdminStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return &models.Profile{ID: userID, IsAdmin: f.admin}, nil
}

func (f *fakeSaleAdminStore) ListSales(ctx context.Context) ([]models.HolidaySale, error) {
	return f.sales, nil
}

func (f *fakeSaleAdminStore) CreateSale(ctx context.Context, s *models.HolidaySale) error {
	f.created = s
	return nil
}

func (f *fakeSaleAdminStore) UpdateSale(ctx context.Context, s *models.HolidaySale) error {
	return supabase.ErrNotFound
}

func (f *fakeSaleAdminStore) DeleteSale(ctx context.Context, saleID uuid.UUID) error {
	f.deleted = saleID
	return nil
}

func (f *fakeSaleAdminStore) ListActiveSales(ctx context.Context, now time.Time) ([]models.HolidaySale, error) {
	return f.sales, nil
}

func newSalesRouter(store *fakeSaleAdminStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testLogger()

	resolver := services.NewSaleResolver(store, nil, log)
	handler := handlers.NewSalesHandler(resolver, store, log)

	withUser := func(fn gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("user_id", testUserID.String())
			fn(c)
		}
	}

	router := gin.New()
	router.GET("/api/v1/sales/active", handler.GetActiveSale)
	router.GET("/api/v1/admin/sales", withUser(handler.ListSales))
	router.POST("/api/v1/admin/sales", withUser(handler.CreateSale))
	router.DELETE("/api/v1/admin/sales/:sale_id", withUser(handler.DeleteSale))
	return router
}

func activeSale(country string) models.HolidaySale {
	now := time.Now().UTC()
	s := models.HolidaySale{
		ID:         uuid.New(),
		Label:      "Holiday Sale",
		BannerText: "50% off premium",
		Emoji:      "🎂",
		StartDate:  now.AddDate(0, 0, -1),
		EndDate:    now.AddDate(0, 0, 6),
		Active:     true,
		Priority:   1,
	}
	if country != "" {
		s.Country.String = country
		s.Country.Valid = true
	}
	return s
}

func TestGetActiveSale_ReturnsSale(t *testing.T) {
	store := &fakeSaleAdminStore{sales: []models.HolidaySale{activeSale("")}}
	router := newSalesRouter(store)

	req, _ := http.NewRequest("GET", "/api/v1/sales/active?country=us", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ActiveSaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Sale)
	assert.Equal(t, "Holiday Sale", resp.Sale.Label)
	assert.Equal(t, "countdown", resp.Sale.DisplayMode)
}

func TestGetActiveSale_NoSaleIsNull(t *testing.T) {
	router := newSalesRouter(&fakeSaleAdminStore{})

	req, _ := http.NewRequest("GET", "/api/v1/sales/active", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sale":null}`, w.Body.String())
}

func TestAdminSales_NonAdminForbidden(t *testing.T) {
	router := newSalesRouter(&fakeSaleAdminStore{admin: false})

	req, _ := http.NewRequest("GET", "/api/v1/admin/sales", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminSales_CreateSale(t *testing.T) {
	store := &fakeSaleAdminStore{admin: true}
	router := newSalesRouter(store)

	now := time.Now().UTC()
	payload, _ := json.Marshal(models.SaleRequest{
		Country:    "de",
		Label:      "Oktober Sale",
		BannerText: "Save big",
		StartDate:  now,
		EndDate:    now.AddDate(0, 0, 7),
		Active:     true,
		Priority:   3,
	})
	req, _ := http.NewRequest("POST", "/api/v1/admin/sales", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, store.created)
	assert.Equal(t, "DE", store.created.Country.String)
	assert.Equal(t, 3, store.created.Priority)
}

func TestAdminSales_CreateSaleRejectsInvertedDates(t *testing.T) {
	store := &fakeSaleAdminStore{admin: true}
	router := newSalesRouter(store)

	now := time.Now().UTC()
	payload, _ := json.Marshal(models.SaleRequest{
		Label:      "Backwards Sale",
		BannerText: "Save big",
		StartDate:  now,
		EndDate:    now.AddDate(0, 0, -7),
	})
	req, _ := http.NewRequest("POST", "/api/v1/admin/sales", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, store.created)
}

func TestAdminSales_DeleteSale(t *testing.T) {
	store := &fakeSaleAdminStore{admin: true}
	router := newSalesRouter(store)

	saleID := uuid.New()
	req, _ := http.NewRequest("DELETE", "/api/v1/admin/sales/"+saleID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, saleID, store.deleted)
}
