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

// fakeGalleryStore implements both the gallery queries and the save-path
// writes so one fake serves the whole images handler.
type fakeGalleryStore struct {
	images     []models.GeneratedImage
	saved      *models.GeneratedImage
	increments int
	notFound   bool
}

func (f *fakeGalleryStore) ListGeneratedImages(ctx context.Context, userID uuid.UUID) ([]models.GeneratedImage, error) {
	return f.images, nil
}

func (f *fakeGalleryStore) SetImageFeatured(ctx context.Context, imageID, userID uuid.UUID, featured bool) error {
	if f.notFound {
		return supabase.ErrNotFound
	}
	return nil
}

func (f *fakeGalleryStore) DeleteGeneratedImage(ctx context.Context, imageID, userID uuid.UUID) error {
	if f.notFound {
		return supabase.ErrNotFound
	}
	return nil
}

func (f *fakeGalleryStore) CreateGeneratedImage(ctx context.Context, img *models.GeneratedImage) error {
	img.CreatedAt = time.Now().UTC()
	f.saved = img
	return nil
}

func (f *fakeGalleryStore) IncrementGenerationCount(ctx context.Context, userID uuid.UUID, year int) (int, error) {
	f.increments++
	return f.increments, nil
}

func newImagesRouter(store *fakeGalleryStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testLogger()

	save := services.NewSaveService(store, nil, nil, log)
	handler := handlers.NewImagesHandler(save, store, log)

	withUser := func(fn gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("user_id", testUserID.String())
			fn(c)
		}
	}

	router := gin.New()
	router.POST("/api/v1/images", withUser(handler.SaveImage))
	router.GET("/api/v1/images", withUser(handler.ListImages))
	router.PATCH("/api/v1/images/:image_id/featured", withUser(handler.FeatureImage))
	router.DELETE("/api/v1/images/:image_id", withUser(handler.DeleteImage))
	return router
}

func TestSaveImage_PersistsAndIncrementsCounter(t *testing.T) {
	store := &fakeGalleryStore{}
	router := newImagesRouter(store)

	payload, _ := json.Marshal(models.SaveImageRequest{
		ImageURL:      "https://cdn.test/cake.png",
		Prompt:        "a birthday cake",
		Message:       "Happy birthday!",
		RecipientName: "Emma",
		Occasion:      "birthday",
	})
	req, _ := http.NewRequest("POST", "/api/v1/images", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, store.saved)
	assert.Equal(t, testUserID, store.saved.UserID)
	assert.Equal(t, "https://cdn.test/cake.png", store.saved.ImageURL)
	assert.Equal(t, "ai", store.saved.MessageType)
	assert.Equal(t, 1, store.increments)
}

func TestSaveImage_MissingFieldsRejected(t *testing.T) {
	store := &fakeGalleryStore{}
	router := newImagesRouter(store)

	req, _ := http.NewRequest("POST", "/api/v1/images", bytes.NewReader([]byte(`{"prompt":"no url"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, store.saved)
}

func TestListImages(t *testing.T) {
	store := &fakeGalleryStore{
		images: []models.GeneratedImage{
			{ID: uuid.New(), UserID: testUserID, ImageURL: "https://cdn.test/a.png", Prompt: "a", MessageType: "ai"},
			{ID: uuid.New(), UserID: testUserID, ImageURL: "https://cdn.test/b.png", Prompt: "b", MessageType: "custom"},
		},
	}
	router := newImagesRouter(store)

	req, _ := http.NewRequest("GET", "/api/v1/images", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ImageListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Images, 2)
}

func TestFeatureImage_NotFound(t *testing.T) {
	router := newImagesRouter(&fakeGalleryStore{notFound: true})

	req, _ := http.NewRequest("PATCH", "/api/v1/images/"+uuid.NewString()+"/featured", bytes.NewReader([]byte(`{"featured":true}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteImage_InvalidID(t *testing.T) {
	router := newImagesRouter(&fakeGalleryStore{})

	req, _ := http.NewRequest("DELETE", "/api/v1/images/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteImage_OK(t *testing.T) {
	router := newImagesRouter(&fakeGalleryStore{})

	req, _ := http.NewRequest("DELETE", "/api/v1/images/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
